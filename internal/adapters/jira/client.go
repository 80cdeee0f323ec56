/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/google/uuid"
    "github.com/rs/zerolog"
)

const (
    pathSearch  = "/rest/api/3/search"
    pathIssue   = "/rest/api/3/issue"
    pathProject = "/rest/api/3/project"
    pathUser    = "/rest/api/3/user"
    pathMyself  = "/rest/api/3/myself"
    pathField   = "/rest/api/3/field"
    pathBoard   = "/rest/agile/1.0/board"
    pathSprint  = "/rest/agile/1.0/sprint"

    defaultPageSize = 100
)

var allFields = []string{"*all"}

type Client struct {
    baseURL     string
    email       string
    token       string
    http        *http.Client
    log         zerolog.Logger
    fields      domain.FieldMapping
    maxIssues   int
    concurrency int
    queue       *retryQueue
    now         func() time.Time
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return NewClientWithHTTP(cfg, log, &http.Client{Timeout: cfg.HTTPTimeout})
}

func NewClientWithHTTP(cfg config.Config, log zerolog.Logger, hc *http.Client) *Client {
    now := time.Now
    conc := cfg.MaxConcurrency
    if conc <= 0 { conc = 8 }
    return &Client{
        baseURL:     strings.TrimRight(cfg.JiraBaseURL, "/"),
        email:       cfg.JiraEmail,
        token:       cfg.JiraAPIToken,
        http:        hc,
        log:         log.With().Str("component", "jira").Logger(),
        fields:      cfg.JiraFields,
        maxIssues:   cfg.JiraMaxIssues,
        concurrency: conc,
        queue:       newRetryQueue(cfg.RetryDelay, cfg.RetryMaxAttempts, log, now),
        now:         now,
    }
}

// SetClock overrides the clock used for date windows and error timestamps.
func (c *Client) SetClock(now func() time.Time) {
    c.now = now
    c.queue.now = now
}

func (c *Client) apiURL(path string, q url.Values) string {
    if !strings.HasPrefix(path, "/") { path = "/" + path }
    u := c.baseURL + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// send performs exactly one round trip; it never retries.
func (c *Client) send(ctx context.Context, method, u string) (int, []byte, error) {
    reqID := uuid.NewString()
    req, err := http.NewRequestWithContext(ctx, method, u, nil)
    if err != nil { return 0, nil, err }
    req.Header.Set("Accept", "application/json")
    req.Header.Set("Content-Type", "application/json")
    req.SetBasicAuth(c.email, c.token)
    c.log.Debug().Str("req_id", reqID).Str("method", method).Str("url", u).Msg("jira request")
    start := time.Now()
    resp, err := c.http.Do(req)
    if err != nil {
        c.log.Error().Err(err).Str("req_id", reqID).Str("url", u).Msg("jira error")
        return 0, nil, err
    }
    defer resp.Body.Close()
    body, err := io.ReadAll(resp.Body)
    if err != nil { return 0, nil, err }
    ev := c.log.Debug()
    if resp.StatusCode >= 300 { ev = c.log.Warn() }
    ev.Str("req_id", reqID).Str("url", u).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("jira response")
    return resp.StatusCode, body, nil
}

// do sends a request; a 429 hands it to the retry queue, anything else >=300
// becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, q url.Values) ([]byte, error) {
    if c.baseURL == "" { return nil, ErrEmptyBaseURL }
    u := c.apiURL(path, q)
    status, body, err := c.send(ctx, method, u)
    if err != nil {
        if ctx.Err() != nil { return nil, ctx.Err() }
        return nil, newTransportError(err, c.now())
    }
    if status == http.StatusTooManyRequests {
        return c.queue.do(ctx, func(ctx context.Context) (int, []byte, error) { return c.send(ctx, method, u) })
    }
    if status >= 300 { return nil, newStatusError(status, body, c.now()) }
    return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
    body, err := c.do(ctx, http.MethodGet, path, q)
    if err != nil { return err }
    if err := json.Unmarshal(body, out); err != nil {
        return fmt.Errorf("jira: decode %s: %w", path, err)
    }
    return nil
}

func (c *Client) mapIssues(issues []domain.Issue) []domain.Issue {
    for i := range issues { issues[i].Fields.ApplyMapping(c.fields) }
    return issues
}

type SearchResult struct {
    Expand     string         `json:"expand,omitempty"`
    StartAt    int            `json:"startAt"`
    MaxResults int            `json:"maxResults"`
    Total      int            `json:"total"`
    Issues     []domain.Issue `json:"issues"`
}

func (c *Client) SearchIssues(ctx context.Context, jql string, fields []string, startAt, maxResults int) (*SearchResult, error) {
    if strings.TrimSpace(jql) == "" { return nil, errors.New("jira: empty jql") }
    if len(fields) == 0 { fields = allFields }
    if maxResults <= 0 { maxResults = defaultPageSize }
    q := url.Values{}
    q.Set("jql", jql)
    q.Set("fields", strings.Join(fields, ","))
    q.Set("startAt", strconv.Itoa(startAt))
    q.Set("maxResults", strconv.Itoa(maxResults))
    q.Set("expand", "changelog")
    var out SearchResult
    if err := c.getJSON(ctx, pathSearch, q, &out); err != nil { return nil, err }
    out.Issues = c.mapIssues(out.Issues)
    if out.Issues == nil { out.Issues = []domain.Issue{} }
    return &out, nil
}

// SearchAll pages through a query until the reported total or the configured cap.
func (c *Client) SearchAll(ctx context.Context, jql string, fields []string) ([]domain.Issue, int, error) {
    out := []domain.Issue{}
    total := 0
    start := 0
    for {
        page, err := c.SearchIssues(ctx, jql, fields, start, defaultPageSize)
        if err != nil { return nil, 0, err }
        total = page.Total
        out = append(out, page.Issues...)
        if len(page.Issues) == 0 || len(out) >= total { break }
        if c.maxIssues > 0 && len(out) >= c.maxIssues {
            c.log.Warn().Str("jql", jql).Int("total", total).Int("cap", c.maxIssues).Msg("search truncated at max issues")
            break
        }
        start += len(page.Issues)
    }
    return out, total, nil
}

func (c *Client) GetIssue(ctx context.Context, key string, fields []string) (*domain.Issue, error) {
    if key == "" { return nil, errors.New("jira: empty issue key") }
    if len(fields) == 0 { fields = allFields }
    q := url.Values{}
    q.Set("fields", strings.Join(fields, ","))
    q.Set("expand", "changelog")
    var out domain.Issue
    if err := c.getJSON(ctx, pathIssue+"/"+url.PathEscape(key), q, &out); err != nil { return nil, err }
    out.Fields.ApplyMapping(c.fields)
    return &out, nil
}

func (c *Client) GetProjects(ctx context.Context) ([]domain.Project, error) {
    var out []domain.Project
    if err := c.getJSON(ctx, pathProject, nil, &out); err != nil { return nil, err }
    return out, nil
}

func (c *Client) GetProject(ctx context.Context, key string) (*domain.Project, error) {
    if key == "" { return nil, errors.New("jira: empty project key") }
    var out domain.Project
    if err := c.getJSON(ctx, pathProject+"/"+url.PathEscape(key), nil, &out); err != nil { return nil, err }
    return &out, nil
}

func (c *Client) GetUser(ctx context.Context, accountID string) (*domain.User, error) {
    if accountID == "" { return nil, errors.New("jira: empty account id") }
    var out domain.User
    if err := c.getJSON(ctx, pathUser, url.Values{"accountId": {accountID}}, &out); err != nil { return nil, err }
    return &out, nil
}

func (c *Client) GetCurrentUser(ctx context.Context) (*domain.User, error) {
    var out domain.User
    if err := c.getJSON(ctx, pathMyself, nil, &out); err != nil { return nil, err }
    return &out, nil
}

// GetBoards lists agile boards, optionally scoped to a project key or id.
func (c *Client) GetBoards(ctx context.Context, projectKeyOrID string) ([]domain.Board, error) {
    var q url.Values
    if projectKeyOrID != "" { q = url.Values{"projectKeyOrId": {projectKeyOrID}} }
    var out struct{ Values []domain.Board `json:"values"` }
    if err := c.getJSON(ctx, pathBoard, q, &out); err != nil { return nil, err }
    if out.Values == nil { out.Values = []domain.Board{} }
    return out.Values, nil
}

// GetBoardSprints lists a board's sprints; state may be empty, future, active or closed.
func (c *Client) GetBoardSprints(ctx context.Context, boardID int64, state string) ([]domain.Sprint, error) {
    if boardID <= 0 { return nil, errors.New("jira: invalid board id") }
    var q url.Values
    if state != "" { q = url.Values{"state": {state}} }
    var out struct{ Values []domain.Sprint `json:"values"` }
    path := pathBoard + "/" + strconv.FormatInt(boardID, 10) + "/sprint"
    if err := c.getJSON(ctx, path, q, &out); err != nil { return nil, err }
    if out.Values == nil { out.Values = []domain.Sprint{} }
    return out.Values, nil
}

func (c *Client) GetSprintData(ctx context.Context, sprintID int64) (*domain.Sprint, error) {
    if sprintID <= 0 { return nil, errors.New("jira: invalid sprint id") }
    var out domain.Sprint
    if err := c.getJSON(ctx, pathSprint+"/"+strconv.FormatInt(sprintID, 10), nil, &out); err != nil { return nil, err }
    return &out, nil
}

func (c *Client) GetSprintIssues(ctx context.Context, sprintID int64) ([]domain.Issue, error) {
    if sprintID <= 0 { return nil, errors.New("jira: invalid sprint id") }
    var out struct{ Issues []domain.Issue `json:"issues"` }
    path := pathSprint + "/" + strconv.FormatInt(sprintID, 10) + "/issue"
    if err := c.getJSON(ctx, path, nil, &out); err != nil { return nil, err }
    if out.Issues == nil { out.Issues = []domain.Issue{} }
    return c.mapIssues(out.Issues), nil
}

// GetFields returns the field catalog as delivered (an array, not an object).
func (c *Client) GetFields(ctx context.Context) ([]map[string]any, error) {
    var out []map[string]any
    if err := c.getJSON(ctx, pathField, nil, &out); err != nil { return nil, err }
    return out, nil
}

// TestConnection reports whether the credentials can read the current user.
func (c *Client) TestConnection(ctx context.Context) bool {
    if _, err := c.GetCurrentUser(ctx); err != nil {
        c.log.Error().Err(err).Msg("connection test failed")
        return false
    }
    return true
}
