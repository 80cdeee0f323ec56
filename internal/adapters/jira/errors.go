/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "sort"
    "strings"
    "time"
)

// APIError is the uniform shape of every non rate-limit failure surfaced to callers.
type APIError struct {
    Message    string    `json:"message"`
    StatusCode int       `json:"statusCode"`
    Timestamp  time.Time `json:"timestamp"`
}

func (e *APIError) Error() string {
    return fmt.Sprintf("jira api status=%d: %s", e.StatusCode, e.Message)
}

var ErrEmptyBaseURL = errors.New("jira: empty baseURL")

func newStatusError(status int, body []byte, now time.Time) *APIError {
    msg := bodyMessage(body)
    if msg == "" { msg = http.StatusText(status) }
    if msg == "" { msg = "An error occurred" }
    return &APIError{Message: msg, StatusCode: status, Timestamp: now.UTC()}
}

func newTransportError(err error, now time.Time) *APIError {
    msg := "An error occurred"
    if err != nil && err.Error() != "" { msg = err.Error() }
    return &APIError{Message: msg, StatusCode: http.StatusInternalServerError, Timestamp: now.UTC()}
}

// maxBodyMessage caps, in runes, the text taken from a non-JSON error body.
const maxBodyMessage = 200

// bodyMessage extracts a human message from a tracker error payload.
func bodyMessage(body []byte) string {
    var payload struct {
        Message       string            `json:"message"`
        ErrorMessages []string          `json:"errorMessages"`
        Errors        map[string]string `json:"errors"`
    }
    if err := json.Unmarshal(body, &payload); err != nil {
        s := strings.TrimSpace(string(body))
        if r := []rune(s); len(r) > maxBodyMessage { s = string(r[:maxBodyMessage]) }
        return s
    }
    if payload.Message != "" { return payload.Message }
    if len(payload.ErrorMessages) > 0 { return strings.Join(payload.ErrorMessages, "; ") }
    if len(payload.Errors) == 0 { return "" }
    fields := make([]string, 0, len(payload.Errors))
    for k := range payload.Errors { fields = append(fields, k) }
    sort.Strings(fields)
    parts := make([]string, len(fields))
    for i, k := range fields { parts[i] = k + ": " + payload.Errors[k] }
    return strings.Join(parts, "; ")
}

// StatusCode reports the status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
    var apiErr *APIError
    if errors.As(err, &apiErr) { return apiErr.StatusCode }
    return 0
}
