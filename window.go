package enrich

import (
	"fmt"
	"strings"
	"time"

	"github.com/ryhazerus/enrich/store"
)

// UsageWindow is the bucket size used when counting requests per operation.
type UsageWindow int

const (
	PerMinute UsageWindow = iota
	PerHour
	PerDay
	// PerMonth uses calendar months in UTC.
	PerMonth
)

var windowLayouts = [...]struct {
	name   string
	layout string
	length time.Duration
}{
	PerMinute: {"minute", "2006-01-02T15:04", time.Minute},
	PerHour:   {"hour", "2006-01-02T15", time.Hour},
	PerDay:    {"day", "2006-01-02", 24 * time.Hour},
	PerMonth:  {"month", "2006-01", 0}, // set per bucket
}

func (w UsageWindow) valid() bool { return w >= PerMinute && w <= PerMonth }

// Bucket returns the store window containing t.
func (w UsageWindow) Bucket(t time.Time) store.Window {
	if !w.valid() {
		w = PerMinute
	}
	l := windowLayouts[w]
	t = t.UTC()
	key := t.Format(l.layout)
	start, _ := time.Parse(l.layout, key)
	length := l.length
	if w == PerMonth {
		length = start.AddDate(0, 1, 0).Sub(start)
	}
	return store.Window{Duration: length, BucketKey: key, BucketStart: start}
}

// String returns the window name accepted by UnmarshalText.
func (w UsageWindow) String() string {
	if !w.valid() {
		return fmt.Sprintf("UsageWindow(%d)", int(w))
	}
	return windowLayouts[w].name
}

// UnmarshalText accepts "minute", "hour", "day" or "month".
func (w *UsageWindow) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, l := range windowLayouts {
		if l.name == s {
			*w = UsageWindow(i)
			return nil
		}
	}
	return fmt.Errorf("enrich: unknown usage window %q", s)
}
