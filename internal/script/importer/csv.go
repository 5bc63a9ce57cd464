// Package importer parses tabular script files into queue items with
// row-level validation reporting.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chattersim/chattersim/internal/script/models"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// Expected header columns, case-insensitive, any order.
const (
	colSender        = "sender"
	colType          = "type"
	colContent       = "content"
	colDelayAfter    = "delayafter"
	colAudioDuration = "audioduration"
	colVideoDuration = "videoduration"
)

// RowError describes why one row was rejected. Row numbers are 1-based and
// count the header, matching what a user sees in their spreadsheet.
type RowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result holds the outcome of parsing one file.
type Result struct {
	Items  []*models.QueueItem
	Errors []RowError
}

// Accepted reports whether the whole file parsed without row errors.
func (r *Result) Accepted() bool {
	return len(r.Errors) == 0
}

// Parse reads a CSV script. The first record must be a header naming the
// columns sender, type, content, delayAfter, audioDuration, videoDuration
// (duration columns optional). Invalid rows are collected in Result.Errors
// and excluded from Result.Items; a malformed file (no header, unknown
// mandatory columns, CSV syntax error) fails outright.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colSender, colType, colContent, colDelayAfter} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	result := &Result{}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if isBlank(record) {
			continue
		}

		item, rowErr := parseRow(record, index, row)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

func parseRow(record []string, index map[string]int, row int) (*models.QueueItem, *RowError) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	item := &models.QueueItem{
		Sender:  v1.Sender(strings.ToLower(field(colSender))),
		Kind:    v1.Kind(strings.ToLower(field(colType))),
		Content: field(colContent),
	}

	if !models.ValidSender(item.Sender) {
		return nil, &RowError{Row: row, Field: "sender", Reason: fmt.Sprintf("must be 'me' or 'friend', got %q", field(colSender))}
	}
	if !models.ValidKind(item.Kind) {
		return nil, &RowError{Row: row, Field: "type", Reason: fmt.Sprintf("unsupported type %q", field(colType))}
	}

	var rowErr *RowError
	item.DelayAfterMs, rowErr = parseMillis(field(colDelayAfter), "delayAfter", row, true)
	if rowErr != nil {
		return nil, rowErr
	}
	item.AudioDurationMs, rowErr = parseMillis(field(colAudioDuration), "audioDuration", row, false)
	if rowErr != nil {
		return nil, rowErr
	}
	item.VideoDurationMs, rowErr = parseMillis(field(colVideoDuration), "videoDuration", row, false)
	if rowErr != nil {
		return nil, rowErr
	}

	if err := item.Validate(); err != nil {
		return nil, &RowError{Row: row, Reason: err.Error()}
	}
	return item, nil
}

// parseMillis parses a non-negative integer millisecond value. Optional
// fields may be empty and default to zero.
func parseMillis(value, field string, row int, required bool) (int, *RowError) {
	if value == "" {
		if required {
			return 0, &RowError{Row: row, Field: field, Reason: "value is required"}
		}
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &RowError{Row: row, Field: field, Reason: fmt.Sprintf("not an integer: %q", value)}
	}
	if n < 0 {
		return 0, &RowError{Row: row, Field: field, Reason: fmt.Sprintf("must be non-negative, got %d", n)}
	}
	return n, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
