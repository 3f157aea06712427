package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDate_AcceptedForms(t *testing.T) {
	n := Normalizer{Location: time.UTC, TimestampUnit: UnitMilliseconds}
	want := day(2024, time.March, 5)

	cases := []struct {
		name string
		in   RawValue
	}{
		{"iso date", String("2024-03-05")},
		{"iso datetime", String("2024-03-05T14:30")},
		{"rfc3339", String("2024-03-05T14:30:00Z")},
		{"space separated", String("2024-03-05 09:00")},
		{"dotted", String("05.03.2024")},
		{"dotted short", String("5.3.2024")},
		{"slashed", String("2024/03/05")},
		{"native time", Time(time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC))},
		{"epoch ms number", Number(float64(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC).UnixMilli()))},
		{"epoch ms string", String("1709632800000")},
		{"link target", LinkValue(Link{Target: "2024-03-05"})},
		{"list first parseable", List(String("soon"), String("2024-03-05"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := n.Date(tc.in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestDate_EpochSeconds(t *testing.T) {
	n := Normalizer{TimestampUnit: UnitSeconds}
	got, ok := n.Date(Number(float64(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC).Unix())))
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", FormatDate(got))
}

func TestDate_SoftFailures(t *testing.T) {
	n := Normalizer{}
	for _, v := range []RawValue{
		Null(),
		String(""),
		String("next tuesday"),
		String("2024"),
		String("31.02.2024"),
		Bool(true),
		Object(map[string]any{"x": 1}),
		List(),
	} {
		_, ok := n.Date(v)
		assert.False(t, ok, "%s %v should not parse", v.Kind, v)
	}
}

func TestDate_EpochOutOfRange(t *testing.T) {
	ms := Normalizer{Location: time.UTC}
	secs := Normalizer{Location: time.UTC, TimestampUnit: UnitSeconds}

	for _, v := range []RawValue{
		Number(1e300),
		Number(-1e19),
		String("99999999999999999999"),
		Number(253402300800000),
	} {
		_, ok := ms.Date(v)
		assert.False(t, ok, "%v ms", v)
	}
	_, ok := secs.Date(Number(1e13))
	assert.False(t, ok)

	got, ok := ms.Date(Number(253402300799000))
	require.True(t, ok)
	assert.Equal(t, "9999-12-31", FormatDate(got))
}

func TestDate_UsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	n := Normalizer{Location: seoul}

	// 2024-03-05T20:00Z is already the 6th in Seoul.
	got, ok := n.Date(String("2024-03-05T20:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, "2024-03-06", FormatDate(got))
	assert.Equal(t, seoul, got.Location())
}

func TestHasClock(t *testing.T) {
	n := Normalizer{}
	assert.True(t, n.HasClock(String("2024-03-05T09:15")))
	assert.False(t, n.HasClock(String("2024-03-05")))
	assert.False(t, n.HasClock(String("garbage")))
}

func TestDisplayString_LinkPrecedence(t *testing.T) {
	cases := []struct {
		name string
		in   RawValue
		want string
	}{
		{"display text wins", LinkValue(Link{DisplayText: "Shown", Path: "a/b/File.md", Alias: "Al", Target: "T"}), "Shown"},
		{"path basename without extension", LinkValue(Link{Path: "projects/Launch Plan.md", Alias: "Al"}), "Launch Plan"},
		{"alias over target", FromAny("[[Target|Alias]]"), "Alias"},
		{"bare target", FromAny("[[Target]]"), "Target"},
		{"unknown object as json", FromAny(map[string]any{"b": 2, "a": "x"}), `{"a":"x","b":2}`},
		{"number", Number(3.5), "3.5"},
		{"bool", Bool(false), "false"},
		{"list", FromAny([]any{"[[A]]", "b", nil}), "A, b"},
		{"midnight time", Time(day(2024, 1, 2)), "2024-01-02"},
		{"null", Null(), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayString(tc.in))
		})
	}
}

func TestFromAny_StructuredLink(t *testing.T) {
	v := FromAny(map[string]any{"path": "notes/Epic.md"})
	require.Equal(t, KindLink, v.Kind)
	assert.Equal(t, "Epic", DisplayString(v))
	assert.Equal(t, "Epic", LinkTarget(v))

	v = FromAny(map[string]any{"link": "[[Story|S]]"})
	require.Equal(t, KindLink, v.Kind)
	assert.Equal(t, "Story", LinkTarget(v))
	assert.Equal(t, "S", DisplayString(v))
}

func TestParseWikiLink(t *testing.T) {
	target, alias, ok := ParseWikiLink(` "[[Epic One|E1]]" `)
	require.True(t, ok)
	assert.Equal(t, "Epic One", target)
	assert.Equal(t, "E1", alias)

	for _, s := range []string{"Epic", "[[]]", "[[a]] and [[b]]", "see [[a]]", "[[|alias]]"} {
		_, _, ok := ParseWikiLink(s)
		assert.False(t, ok, s)
	}
}

func TestParseTimestampUnit(t *testing.T) {
	u, err := ParseTimestampUnit("")
	require.NoError(t, err)
	assert.Equal(t, UnitMilliseconds, u)

	u, err = ParseTimestampUnit("seconds")
	require.NoError(t, err)
	assert.Equal(t, UnitSeconds, u)

	_, err = ParseTimestampUnit("minutes")
	assert.Error(t, err)
}
