// Package datetime holds the wall-clock format shared by every HTTP boundary
// of both services ("yyyy-MM-dd HH:mm:ss", local time, no zone).
package datetime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const Layout = "2006-01-02 15:04:05"

// Time marshals as a Layout string. The zero value marshals as null.
type Time struct {
	time.Time
}

func New(t time.Time) Time { return Time{Time: t} }

// Ptr returns nil for a nil input, a wrapped copy otherwise.
func Ptr(t *time.Time) *Time {
	if t == nil {
		return nil
	}
	return &Time{Time: *t}
}

func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected format %q: %w", "yyyy-MM-dd HH:mm:ss", err)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.In(time.Local).Format(Layout)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(Format(t.Time))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Time) String() string { return Format(t.Time) }
