package record

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ name string }

func (f failing) Name() string { return f.name }
func (f failing) Load(context.Context) ([]Record, error) {
	return nil, errors.New("boom")
}

func TestMulti_MergesAndSkipsFailures(t *testing.T) {
	m := Multi{
		Static{Label: "b", Records: []Record{{ID: "2"}, {ID: "3"}}},
		failing{name: "feed"},
		Static{Label: "a", Records: []Record{{ID: "1"}}},
	}

	recs, err := m.Load(context.Background())
	require.NoError(t, err)

	ids := []string{}
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestMulti_AllFailed(t *testing.T) {
	_, err := Multi{failing{name: "x"}, failing{name: "y"}}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x: boom")
	assert.Contains(t, err.Error(), "y: boom")
}

func TestMulti_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Multi{Static{Label: "a"}}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex(t *testing.T) {
	idx := Index([]Record{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	assert.Equal(t, "B", idx["b"].Title)
	assert.Len(t, idx, 2)
}
