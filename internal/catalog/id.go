package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a record. Upstream catalogs use either JSON strings or
// integers; both forms compare by their canonical text, so 7 and "7" are the
// same record.
type ID struct {
	s   string
	num bool
}

// StringID returns a string-form ID.
func StringID(s string) ID { return ID{s: s} }

// IntID returns an integer-form ID.
func IntID(n int64) ID { return ID{s: strconv.FormatInt(n, 10), num: true} }

func (i ID) String() string { return i.s }

// IsZero reports whether the ID was never set.
func (i ID) IsZero() bool { return i.s == "" }

// Numeric reports whether the ID was decoded from a JSON integer.
func (i ID) Numeric() bool { return i.num }

func (i ID) MarshalJSON() ([]byte, error) {
	if i.num {
		return []byte(i.s), nil
	}
	return json.Marshal(i.s)
}

func (i *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("id is null")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("id is empty")
		}
		*i = ID{s: s}
		return nil
	}
	lit := string(b)
	if !isIntegerLiteral(lit) {
		return fmt.Errorf("id must be a string or an integer, got %s", truncate(lit, 32))
	}
	// JSON forbids leading zeros, so the literal is already canonical and
	// integers of any width keep their exact digits.
	if lit == "-0" {
		lit = "0"
	}
	*i = ID{s: lit, num: true}
	return nil
}

// isIntegerLiteral matches JSON's -?(0|[1-9][0-9]*).
func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
