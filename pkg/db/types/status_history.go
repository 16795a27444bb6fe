package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StatusEntry is one append-only transition on an order.
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusHistory is stored as a jsonb array and only ever appended to.
type StatusHistory []StatusEntry

func (h *StatusHistory) Scan(src any) error {
	if src == nil {
		*h = StatusHistory{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("StatusHistory: unsupported Scan type %T", src)
	}
}

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Append returns a new history with the transition recorded at the given time.
func (h StatusHistory) Append(status string, at time.Time) StatusHistory {
	out := make(StatusHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, StatusEntry{Status: status, Timestamp: at.UTC()})
}
