package http

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// looseString accepts a JSON string or number, keeping the literal text of
// numbers so amounts never pass through float64.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
		return nil
	}
}

type expenseRequest struct {
	Title    looseString `json:"title"`
	Amount   looseString `json:"amount"`
	Category looseString `json:"category"`
	Date     looseString `json:"date"`
}

// parseID parses a positive path id.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
