package normalize

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"
)

// TimestampUnit states how bare numbers are interpreted as epoch times.
// There is no guessing between the two: the unit comes from configuration.
type TimestampUnit string

const (
	UnitMilliseconds TimestampUnit = "ms"
	UnitSeconds      TimestampUnit = "s"
)

// ParseTimestampUnit accepts "ms"/"s" and their long forms.
func ParseTimestampUnit(s string) (TimestampUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ms", "millis", "milliseconds":
		return UnitMilliseconds, nil
	case "s", "sec", "seconds":
		return UnitSeconds, nil
	default:
		return "", fmt.Errorf("unknown timestamp unit %q (want ms or s)", s)
	}
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// Formats tried in order for string values. Layouts without a zone are read
// in the normalizer's location.
var stringLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006",
	"2.1.2006",
	"2006/01/02",
	"20060102",
}

// Normalizer turns RawValues into dates. The zero value reads times in UTC
// and numbers as milliseconds.
type Normalizer struct {
	Location      *time.Location
	TimestampUnit TimestampUnit
}

func (n Normalizer) loc() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

// Time resolves v to an instant, keeping any time-of-day. ok is false for
// anything that does not parse; callers drop such records from layout.
func (n Normalizer) Time(v RawValue) (time.Time, bool) {
	switch v.Kind {
	case KindTime:
		if v.Time.IsZero() {
			return time.Time{}, false
		}
		return v.Time.In(n.loc()), true
	case KindNumber:
		return n.fromEpoch(v.Num)
	case KindString:
		return n.parseString(v.Str)
	case KindLink:
		for _, s := range []string{v.Link.DisplayText, v.Link.Alias, v.Link.Target, trimExt(path.Base(v.Link.Path))} {
			if t, ok := n.parseString(s); ok {
				return t, true
			}
		}
		return time.Time{}, false
	case KindList:
		for _, e := range v.List {
			if t, ok := n.Time(e); ok {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Date resolves v to midnight of its calendar day in the normalizer's location.
func (n Normalizer) Date(v RawValue) (time.Time, bool) {
	t, ok := n.Time(v)
	if !ok {
		return time.Time{}, false
	}
	return TruncateDay(t.In(n.loc())), true
}

// HasClock reports whether v carries a time-of-day component.
func (n Normalizer) HasClock(v RawValue) bool {
	t, ok := n.Time(v)
	if !ok {
		return false
	}
	return !TruncateDay(t).Equal(t)
}

// Epoch seconds of 0001-01-01 and 9999-12-31T23:59:59Z; numbers outside
// are not dates.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

func (n Normalizer) fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	scale := 1000.0
	if n.TimestampUnit == UnitSeconds {
		scale = 1
	}
	if f < minEpochSeconds*scale || f > maxEpochSeconds*scale {
		return time.Time{}, false
	}
	var t time.Time
	switch n.TimestampUnit {
	case UnitSeconds:
		t = time.Unix(int64(f), 0)
	default:
		t = time.UnixMilli(int64(f))
	}
	return t.In(n.loc()), true
}

func (n Normalizer) parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stringLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc()); err == nil {
			return t.In(n.loc()), true
		}
	}
	if isEpochString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return n.fromEpoch(f)
		}
	}
	return time.Time{}, false
}

// isEpochString accepts an optional sign followed by at least 9 digits, so
// short numbers such as "2024" are not mistaken for timestamps.
func isEpochString(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if len(s) < 9 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TruncateDay returns midnight of t's day in t's location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders the canonical YYYY-MM-DD form written back to records.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDateTime renders YYYY-MM-DDTHH:MM.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}
