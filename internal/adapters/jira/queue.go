/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "net/http"
    "sync"
    "time"

    "github.com/rs/zerolog"
)

// attemptFunc performs one HTTP round trip and reports status and body.
type attemptFunc func(ctx context.Context) (int, []byte, error)

type retryResult struct {
    body []byte
    err  error
}

type retryJob struct {
    ctx     context.Context
    attempt attemptFunc
    tries   int
    done    chan retryResult
}

// retryQueue replays rate-limited requests one at a time, in arrival order,
// waiting delay after every replay. It is idle until the first push and goes
// back to idle once empty. With maxAttempts <= 0 a job is replayed until it
// succeeds or its context ends.
type retryQueue struct {
    mu          sync.Mutex
    jobs        []*retryJob
    draining    bool
    delay       time.Duration
    maxAttempts int
    log         zerolog.Logger
    now         func() time.Time
    sleep       func(time.Duration)
}

func newRetryQueue(delay time.Duration, maxAttempts int, log zerolog.Logger, now func() time.Time) *retryQueue {
    return &retryQueue{delay: delay, maxAttempts: maxAttempts, log: log, now: now, sleep: time.Sleep}
}

// do enqueues attempt and blocks until it resolves or ctx ends.
func (q *retryQueue) do(ctx context.Context, attempt attemptFunc) ([]byte, error) {
    job := &retryJob{ctx: ctx, attempt: attempt, done: make(chan retryResult, 1)}
    q.push(job)
    select {
    case r := <-job.done:
        return r.body, r.err
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (q *retryQueue) push(j *retryJob) {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.jobs = append(q.jobs, j)
    if !q.draining {
        q.draining = true
        go q.drain()
    }
}

// Draining reports whether the drainer goroutine is active.
func (q *retryQueue) Draining() bool {
    q.mu.Lock()
    defer q.mu.Unlock()
    return q.draining
}

func (q *retryQueue) drain() {
    for {
        q.mu.Lock()
        if len(q.jobs) == 0 {
            q.draining = false
            q.mu.Unlock()
            return
        }
        j := q.jobs[0]
        q.jobs[0] = nil
        q.jobs = q.jobs[1:]
        q.mu.Unlock()

        if j.ctx.Err() != nil {
            j.done <- retryResult{err: j.ctx.Err()}
            continue
        }
        q.run(j)
        q.sleep(q.delay)
    }
}

func (q *retryQueue) run(j *retryJob) {
    j.tries++
    status, body, err := j.attempt(j.ctx)
    switch {
    case err != nil:
        q.log.Error().Err(err).Int("tries", j.tries).Msg("jira retry failed")
        j.done <- retryResult{err: newTransportError(err, q.now())}
    case status == http.StatusTooManyRequests:
        if q.maxAttempts > 0 && j.tries >= q.maxAttempts {
            q.log.Warn().Int("tries", j.tries).Msg("jira retry gave up after repeated rate limiting")
            j.done <- retryResult{err: newStatusError(status, body, q.now())}
            return
        }
        q.log.Debug().Int("tries", j.tries).Msg("jira still rate limited, requeued")
        q.mu.Lock()
        q.jobs = append(q.jobs, j)
        q.mu.Unlock()
    case status >= 300:
        j.done <- retryResult{err: newStatusError(status, body, q.now())}
    default:
        j.done <- retryResult{body: body}
    }
}
