package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/julian/internal/calendar"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single operation in a batch
type Result struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
	Start   string `json:"start,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that can be a single string, a
// comma-separated string, a JSON array string or an array of strings.
// Entries are trimmed and duplicates dropped.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		var arr []string
		if strings.HasPrefix(strings.TrimSpace(v), "[") && json.Unmarshal([]byte(v), &arr) == nil {
			raw = arr
		} else {
			raw = strings.Split(v, ",")
		}
	case []string:
		raw = v
	case []interface{}:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if strings.TrimSpace(str) == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]bool, len(raw))
	var result []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	return result, nil
}

// Aggregate counts successes and failures.
func Aggregate(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}
	if br.Results == nil {
		br.Results = []Result{}
	}

	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Aggregate(results), "", "  ")
	return string(jsonBytes)
}

// ProcessBatch executes fn on each item in order and collects results.
// Items left when ctx is done are reported as errors without calling fn.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
		} else {
			results = append(results, NewSuccessResult(id, res))
		}
	}

	return results
}

// FromDeclineResults converts bulk decline outcomes, keeping the event title
// and start time in loc.
func FromDeclineResults(declines []calendar.DeclineResult, loc *time.Location) []Result {
	results := make([]Result, 0, len(declines))
	for _, d := range declines {
		r := NewSuccessResult(d.EventID, "declined")
		if d.Err != nil {
			r = NewErrorResult(d.EventID, d.Err)
		}
		r.Summary = d.Summary
		if !d.Start.IsZero() {
			r.Start = d.Start.In(loc).Format(time.RFC3339)
		}
		results = append(results, r)
	}
	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
