package variants

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorSize() []Tier {
	return []Tier{
		{Name: "Color", Options: []string{"Red", "Blue"}, HasImages: true, Images: [][]string{{}, {}}},
		{Name: "Size", Options: []string{"S", "M"}},
	}
}

func TestGenerateModels_ColorSizeScenario(t *testing.T) {
	tiers := colorSize()
	models := GenerateModels(tiers, 120000)

	require.Len(t, models, 4)
	want := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for i, m := range models {
		assert.Equal(t, want[i], m.TierIndex, "model %d", i)
		assert.EqualValues(t, 120000, m.Price)
		assert.Zero(t, m.Stock)
		assert.Zero(t, m.Sold)
		assert.Empty(t, m.SKU)
	}

	got, ok := ResolveModel(models, []int{1, 0})
	require.True(t, ok)
	assert.Equal(t, []string{"Blue", "S"}, OptionLabels(tiers, got.TierIndex))
}

func TestGenerateModels_CartesianCompleteness(t *testing.T) {
	shapes := [][]int{{1}, {4}, {2, 3}, {3, 1, 2}, {2, 2, 2}}
	for _, shape := range shapes {
		t.Run(fmt.Sprint(shape), func(t *testing.T) {
			tiers := make([]Tier, len(shape))
			expected := 1
			for i, n := range shape {
				opts := make([]string, n)
				for j := range opts {
					opts[j] = fmt.Sprintf("t%d-o%d", i, j)
				}
				tiers[i] = Tier{Name: fmt.Sprintf("tier-%d", i), Options: opts}
				expected *= n
			}

			models := GenerateModels(tiers, 0)
			require.Len(t, models, expected)

			seen := map[string]bool{}
			for _, m := range models {
				require.Len(t, m.TierIndex, len(shape))
				for pos, idx := range m.TierIndex {
					require.True(t, idx >= 0 && idx < shape[pos])
				}
				key := fmt.Sprint(m.TierIndex)
				require.False(t, seen[key], "duplicate %s", key)
				seen[key] = true
			}
			assert.NoError(t, Validate(tiers, models, nil))
		})
	}
}

func TestGenerateModels_LastTierVariesFastest(t *testing.T) {
	tiers := []Tier{
		{Name: "A", Options: []string{"a0", "a1"}},
		{Name: "B", Options: []string{"b0", "b1", "b2"}},
	}
	models := GenerateModels(tiers, 1)
	var order [][]int
	for _, m := range models {
		order = append(order, m.TierIndex)
	}
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, order)
}

func TestGenerateModels_SingleTier(t *testing.T) {
	models := GenerateModels([]Tier{{Name: "Size", Options: []string{"S", "M", "L"}}}, 5)
	require.Len(t, models, 3)
	for i, m := range models {
		assert.Equal(t, []int{i}, m.TierIndex)
	}
}

func TestGenerateModels_NoTiersIsEmptyNotNil(t *testing.T) {
	models := GenerateModels(nil, 10)
	assert.NotNil(t, models)
	assert.Empty(t, models)
}

func TestGenerateModels_IndexSlicesAreIndependent(t *testing.T) {
	models := GenerateModels(colorSize(), 1)
	models[0].TierIndex[0] = 9
	assert.Equal(t, []int{0, 1}, models[1].TierIndex)
}
