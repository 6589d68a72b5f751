package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colabbrave/minuteforge/internal/types"
)

func TestCatalogBaseline(t *testing.T) {
	c := NewCatalog()

	baseline := c.Baseline()
	require.Len(t, baseline, 3)

	wantDims := []types.Dimension{types.DimensionRole, types.DimensionStructure, types.DimensionContent}
	for i, id := range baseline {
		s, ok := c.Get(id)
		require.True(t, ok, "baseline id %s not in catalog", id)
		assert.Equal(t, wantDims[i], s.Dimension)
	}
}

func TestCatalogDimensionsAreExplicit(t *testing.T) {
	c := NewCatalog()
	for _, s := range c.All() {
		assert.True(t, s.Dimension.Valid(), "strategy %s has invalid dimension %q", s.ID, s.Dimension)
		assert.NotEmpty(t, s.PromptFragment, "strategy %s has no prompt fragment", s.ID)
	}
}

func TestCatalogConflictsResolve(t *testing.T) {
	c := NewCatalog()
	for _, s := range c.All() {
		for _, other := range s.ConflictsWith {
			assert.True(t, c.Has(other), "strategy %s conflicts with unknown id %s", s.ID, other)
		}
	}
}

func TestCatalogConflictsBothDirections(t *testing.T) {
	c := NewCatalog()

	// The helper must see a conflict regardless of which side declares it.
	for _, s := range c.All() {
		for _, other := range s.ConflictsWith {
			assert.True(t, c.Conflicts(s.ID, other))
			assert.True(t, c.Conflicts(other, s.ID))
		}
	}
	assert.False(t, c.Conflicts(baselineRole, baselineStructure))
}

func TestCatalogByDimensionOrderIsStable(t *testing.T) {
	c := NewCatalog()

	first := c.ByDimension(types.DimensionLanguage)
	second := c.ByDimension(types.DimensionLanguage)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestCatalogRejectsDuplicateIDs(t *testing.T) {
	_, err := newCatalog([]*types.Strategy{
		{ID: "x", Dimension: types.DimensionRole, PromptFragment: "a"},
		{ID: "x", Dimension: types.DimensionContent, PromptFragment: "b"},
	})
	require.Error(t, err)
}

func TestCatalogRejectsUnknownConflictTarget(t *testing.T) {
	_, err := newCatalog([]*types.Strategy{
		{ID: "x", Dimension: types.DimensionRole, PromptFragment: "a", ConflictsWith: []string{"ghost"}},
	})
	require.Error(t, err)
}
