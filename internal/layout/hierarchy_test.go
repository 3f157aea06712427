package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func child(id, parent string, start, end int) Item {
	it := item(id, start, end)
	it.ParentID = parent
	return it
}

func hasDiag(diags []Diagnostic, code DiagnosticCode, itemID string) bool {
	for _, dg := range diags {
		if dg.Code == code && dg.ItemID == itemID {
			return true
		}
	}
	return false
}

func TestSortByHierarchy_ShuffledChain(t *testing.T) {
	epic := item("epic", 1, 30)
	story := child("story", "epic", 2, 10)
	task := child("task", "story", 3, 4)

	orders := [][]Item{
		{epic, story, task},
		{task, story, epic},
		{story, epic, task},
		{task, epic, story},
		{epic, task, story},
		{story, task, epic},
	}
	for _, in := range orders {
		res := SortByHierarchy(in)
		require.Equal(t, []string{"epic", "story", "task"}, ids(res.Items))
		assert.Equal(t, []int{0, 1, 2}, []int{res.Items[0].Depth, res.Items[1].Depth, res.Items[2].Depth})
		assert.Equal(t, []int{0, 1, 2}, []int{res.Items[0].Row, res.Items[1].Row, res.Items[2].Row})
		assert.Empty(t, res.Diagnostics)
	}
}

func TestSortByHierarchy_ChildrenByStart(t *testing.T) {
	res := SortByHierarchy([]Item{
		child("late", "root", 9, 9),
		item("root", 1, 10),
		child("early", "root", 2, 3),
		child("mid", "root", 5, 5),
	})

	assert.Equal(t, []string{"root", "early", "mid", "late"}, ids(res.Items))
}

func TestSortByHierarchy_RootsByStart(t *testing.T) {
	res := SortByHierarchy([]Item{
		item("r2", 5, 6), child("r2c", "r2", 5, 5),
		item("r1", 1, 2), child("r1c", "r1", 1, 1),
	})

	assert.Equal(t, []string{"r1", "r1c", "r2", "r2c"}, ids(res.Items))
}

func TestSortByHierarchy_TitleFallback(t *testing.T) {
	parent := Item{ID: "notes/epic.md", Title: "Epic", Start: d(1), End: d(5)}
	kid := child("notes/story.md", "Epic", 2, 3)

	res := SortByHierarchy([]Item{kid, parent})

	require.Equal(t, []string{"notes/epic.md", "notes/story.md"}, ids(res.Items))
	assert.Equal(t, "notes/epic.md", res.Items[1].ParentID, "parent reference is rewritten to the id")
	assert.True(t, hasDiag(res.Diagnostics, DiagParentByTitle, "notes/story.md"))
}

func TestSortByHierarchy_IDBeatsTitle(t *testing.T) {
	// "b" is both an id and another item's title; the id wins.
	res := SortByHierarchy([]Item{
		{ID: "a", Title: "b", Start: d(1), End: d(1)},
		{ID: "b", Title: "B", Start: d(2), End: d(2)},
		child("c", "b", 3, 3),
	})

	assert.Equal(t, []string{"b", "c", OrphansID, "a"}, ids(res.Items))
}

func TestSortByHierarchy_MutualCycle(t *testing.T) {
	res := SortByHierarchy([]Item{child("a", "b", 2, 3), child("b", "a", 1, 4)})

	require.Len(t, res.Items, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, ids(res.Items))
	assert.Equal(t, "b", res.Items[0].ID, "earliest cycle member becomes the entry")
	assert.Equal(t, "", res.Items[0].ParentID)
	assert.Equal(t, 1, res.Items[1].Depth)
	assert.True(t, hasDiag(res.Diagnostics, DiagCycle, "b"))
}

func TestSortByHierarchy_CycleWithTail(t *testing.T) {
	res := SortByHierarchy([]Item{
		child("a", "c", 1, 1),
		child("b", "a", 2, 2),
		child("c", "b", 3, 3),
		child("tail", "b", 4, 4),
		item("solo", 5, 5),
	})

	assert.Equal(t, []string{"a", "b", "c", "tail", OrphansID, "solo"}, ids(res.Items))
	assert.Equal(t, []int{0, 1, 2, 2}, []int{res.Items[0].Depth, res.Items[1].Depth, res.Items[2].Depth, res.Items[3].Depth})
}

func TestSortByHierarchy_SelfParent(t *testing.T) {
	res := SortByHierarchy([]Item{child("me", "me", 1, 2)})

	assert.Equal(t, []string{OrphansID, "me"}, ids(res.Items))
	assert.True(t, hasDiag(res.Diagnostics, DiagSelfParent, "me"))
}

func TestSortByHierarchy_OrphansAfterTrees(t *testing.T) {
	res := SortByHierarchy([]Item{
		child("lost", "missing", 20, 25),
		item("solo", 3, 4),
		item("root", 10, 12),
		child("leaf", "root", 11, 11),
	})

	require.Equal(t, []string{"root", "leaf", OrphansID, "solo", "lost"}, ids(res.Items))

	placeholder := res.Items[2]
	assert.True(t, placeholder.Synthetic)
	assert.Equal(t, OrphansTitle, placeholder.Title)
	assert.Equal(t, d(3), placeholder.Start)
	assert.Equal(t, d(25), placeholder.End)
	assert.Equal(t, "", res.Items[4].ParentID, "unresolved parent is cleared")
	assert.True(t, hasDiag(res.Diagnostics, DiagParentNotFound, "lost"))

	for i, it := range res.Items {
		assert.Equal(t, i, it.Row)
	}
}

func TestSortByHierarchy_NoOrphansNoPlaceholder(t *testing.T) {
	res := SortByHierarchy([]Item{item("root", 1, 2), child("kid", "root", 1, 1)})

	assert.Equal(t, []string{"root", "kid"}, ids(res.Items))
}

func TestSortByHierarchy_Empty(t *testing.T) {
	res := SortByHierarchy(nil)
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Diagnostics)
}
