package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_UngroupedModes(t *testing.T) {
	in := []Item{item("a", 1, 2), item("b", 3, 4), child("c", "a", 1, 1)}

	packed := Run(in, Options{Mode: ModePacked})
	assert.Equal(t, 2, packed.Rows)
	assert.Empty(t, packed.Groups)

	seq := Run(in, Options{Mode: ModeOnePerRow})
	assert.Equal(t, 3, seq.Rows)

	tree := Run(in, Options{Mode: ModeHierarchy})
	assert.Equal(t, []string{"a", "c", OrphansID, "b"}, ids(tree.Items))
	assert.Equal(t, 4, tree.Rows)
}

func TestRun_GroupFieldIgnoredWhenUngrouped(t *testing.T) {
	res := Run([]Item{grouped("a", "x", 1, 1), grouped("b", "y", 2, 2)}, Options{Mode: ModePacked})

	assert.Empty(t, res.Groups)
	assert.Equal(t, 1, res.Rows)
}

func TestRun_VisibleAndFind(t *testing.T) {
	res := Run([]Item{grouped("a", "x", 1, 1), grouped("b", "y", 2, 2)}, Options{
		Mode:      ModePacked,
		Grouped:   true,
		Collapsed: NewCollapseSet("y"),
	})

	assert.Equal(t, []string{"a"}, ids(res.Visible()))
	b, ok := res.Find("b")
	require.True(t, ok)
	assert.True(t, b.Hidden)
	_, ok = res.Find("nope")
	assert.False(t, ok)
}

func TestCollapseSet(t *testing.T) {
	var zero CollapseSet
	assert.False(t, zero.Has("x"))
	assert.Equal(t, 0, zero.Len())

	s := zero.Toggle("x")
	assert.True(t, s.Has("x"))
	assert.False(t, zero.Has("x"), "toggle returns a copy")

	s2 := s.Toggle("x").With("b", true).With("a", true)
	assert.Equal(t, []string{"a", "b"}, s2.Names())
	assert.True(t, s.Has("x"))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":            ModePacked,
		"Packed":      ModePacked,
		"one-per-row": ModeOnePerRow,
		"sequential":  ModeOnePerRow,
		"tree":        ModeHierarchy,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("spiral")
	assert.Error(t, err)
}
