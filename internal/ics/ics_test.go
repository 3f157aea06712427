package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "planview/internal/log"
	"planview/internal/normalize"
)

func icsBody(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//planview//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

var sample = icsBody(
	"BEGIN:VEVENT",
	"UID:standup@example.com",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240101T090000Z",
	"DTEND:20240101T093000Z",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE:20240108T090000Z",
	"SUMMARY:Standup",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup@example.com",
	"DTSTAMP:20240101T000000Z",
	"RECURRENCE-ID:20240115T090000Z",
	"DTSTART:20240115T110000Z",
	"DTEND:20240115T113000Z",
	"SUMMARY:Standup (moved)",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:offsite@example.com",
	"DTSTAMP:20240101T000000Z",
	"DTSTART;VALUE=DATE:20240110",
	"DTEND;VALUE=DATE:20240113",
	"SUMMARY:Offsite",
	"LOCATION:Lisbon",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240101T090000Z",
	"SUMMARY:No uid",
	"END:VEVENT",
)

var src = Source{ID: "work", Name: "Work", URL: "https://cal.example.com/private/token.ics"}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(src, sample)
	require.NoError(t, err)
	require.Len(t, events, 3, "event without UID is skipped")

	standup := events[0]
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)
	assert.True(t, standup.ExDates[0].Equal(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)))

	moved := events[1]
	assert.True(t, moved.IsOverride)

	offsite := events[2]
	assert.True(t, offsite.AllDay)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), offsite.Start)
	assert.Equal(t, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), offsite.End)
	assert.Equal(t, "Lisbon", offsite.Location)
}

func TestParseICS_Empty(t *testing.T) {
	_, err := ParseICS(src, []byte("  \r\n"))
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	events, err := ParseICS(src, sample)
	require.NoError(t, err)

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var got []string
	for _, o := range res.Occurrences {
		got = append(got, o.Start.Format("01-02T15:04")+" "+o.Summary)
	}
	assert.Equal(t, []string{
		"01-01T09:00 Standup",
		"01-10T00:00 Offsite",
		"01-15T11:00 Standup (moved)",
		"01-22T09:00 Standup",
	}, got)
	assert.Empty(t, res.TruncatedEvents)
}

func TestExpandOccurrences_Window(t *testing.T) {
	events, err := ParseICS(src, sample)
	require.NoError(t, err)

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 1, "offsite started before the window but is still running")
	assert.Equal(t, "Offsite", res.Occurrences[0].Summary)

	_, err = ExpandOccurrences(events, ExpandConfig{
		RangeStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestExpandOccurrences_Cap(t *testing.T) {
	events := []ParsedEvent{{
		UID:      "daily",
		Start:    time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY",
	}}
	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:               time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		MaxOccurrencesPerEvent: 10,
	})
	require.NoError(t, err)
	assert.Len(t, res.Occurrences, 10)
	assert.Equal(t, []string{"daily"}, res.TruncatedEvents)
}

func TestOccurrenceRecord(t *testing.T) {
	occ := Occurrence{
		SourceID: "work", UID: "offsite", Summary: "Offsite", AllDay: true,
		Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
	}
	occ.InstanceKey = occ.Start.Format(time.RFC3339)

	rec := OccurrenceRecord(occ, "Work")
	assert.True(t, rec.ReadOnly)
	assert.Equal(t, "ics:work/offsite", rec.Ref)
	assert.Equal(t, "Offsite", rec.Title)

	n := normalize.Normalizer{Location: time.UTC}
	end, ok := n.Date(rec.Properties.Get("end"))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), end, "exclusive DTEND becomes the last covered day")
	assert.Equal(t, rec.ID, OccurrenceRecord(occ, "Work").ID)
}

func TestFetcher_RevalidatesWithETag(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(sample)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	s := Source{ID: "work", URL: srv.URL + "/cal.ics"}

	first, err := f.FetchOne(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.FetchOne(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestFetcher_FallsBackToCache(t *testing.T) {
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write(sample)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	s := Source{ID: "work", URL: srv.URL}

	_, err := f.FetchOne(context.Background(), s)
	require.NoError(t, err)

	fail.Store(true)
	res, err := f.FetchOne(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	_, err = NewFetcher(t.TempDir()).FetchOne(context.Background(), s)
	assert.Error(t, err, "no cache to fall back to")
}

func TestFeed_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(sample)
	}))
	defer srv.Close()

	feed := &Feed{
		Fetcher:  NewFetcher(t.TempDir()),
		Sources:  []Source{{ID: "work", Name: "Work", URL: srv.URL}},
		Location: time.UTC,
		Past:     24 * time.Hour,
		Ahead:    40 * 24 * time.Hour,
		Now:      func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) },
	}

	recs, err := feed.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for _, r := range recs {
		assert.True(t, r.ReadOnly)
		assert.Equal(t, "Work", normalize.DisplayString(r.Properties.Get("calendar")))
	}
}

func TestFeed_UnparseableSourceIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blank.ics" {
			_, _ = w.Write([]byte("  \r\n"))
			return
		}
		_, _ = w.Write(sample)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(os.Stderr) })

	feed := &Feed{
		Fetcher: NewFetcher(t.TempDir()),
		Sources: []Source{
			{ID: "work", URL: srv.URL + "/work.ics"},
			{ID: "blank", URL: srv.URL + "/blank.ics"},
		},
		Location: time.UTC,
		Past:     24 * time.Hour,
		Ahead:    40 * 24 * time.Hour,
		Now:      func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) },
	}

	recs, err := feed.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 4)
	assert.Contains(t, buf.String(), "ics parse failed")
	assert.Contains(t, buf.String(), "source=blank")
}

func TestFeed_AllSourcesFail(t *testing.T) {
	feed := &Feed{
		Fetcher: NewFetcher(t.TempDir()),
		Sources: []Source{{ID: "dead", URL: "http://127.0.0.1:1/cal.ics"}},
	}
	_, err := feed.Load(context.Background())
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://cal.example.com/...(redacted)", redactURL(src.URL))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
