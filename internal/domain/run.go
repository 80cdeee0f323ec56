package domain

import "time"

// FetchRun is one network fetch performed by the orchestrator.
type FetchRun struct {
    ID        int64         `json:"id"`
    Kind      string        `json:"kind"`
    Key       string        `json:"key"`
    Forced    bool          `json:"forced"`
    StartedAt time.Time     `json:"startedAt"`
    Duration  time.Duration `json:"duration"`
    OK        bool          `json:"ok"`
    Error     string        `json:"error,omitempty"`
}
