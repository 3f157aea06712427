package timeline

import (
	"fmt"
	"time"
)

// Marker is one tick on the time axis. Major ticks fall on month boundaries
// and get header emphasis.
type Marker struct {
	Date  time.Time
	Label string
	Major bool
}

// GenerateMarkers returns one marker per day, ISO week or month touching r,
// in order. The first week marker is the Monday on or before r.Start.
func GenerateMarkers(r Range, g Granularity) []Marker {
	if !r.Valid() {
		return nil
	}

	var out []Marker
	switch g {
	case Week:
		for wk := StartOfISOWeek(r.Start); !wk.After(r.End); wk = wk.AddDate(0, 0, 7) {
			_, isoWeek := wk.ISOWeek()
			last := wk.AddDate(0, 0, 6)
			out = append(out, Marker{
				Date:  wk,
				Label: fmt.Sprintf("W%02d", isoWeek),
				Major: wk.Day() == 1 || last.Month() != wk.Month(),
			})
		}
	case Month:
		for m := StartOfMonth(r.Start); !m.After(r.End); m = m.AddDate(0, 1, 0) {
			out = append(out, Marker{
				Date:  m,
				Label: m.Format("Jan 2006"),
				Major: true,
			})
		}
	default:
		for day := dateOf(r.Start, r.Start.Location()); !day.After(r.End); day = day.AddDate(0, 0, 1) {
			label := day.Format("2")
			if day.Day() == 1 {
				label = day.Format("Jan 2")
			}
			out = append(out, Marker{
				Date:  day,
				Label: label,
				Major: day.Day() == 1,
			})
		}
	}
	return out
}
