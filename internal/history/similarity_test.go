package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/sortwise/internal/model"
)

func entry(item, material string) model.HistoryEntry {
	return model.HistoryEntry{Item: item, Material: material, Source: model.SourceText, ScanCount: 1}
}

func TestMaterialsCompatible(t *testing.T) {
	assert.True(t, MaterialsCompatible("plastic", "Plastic"))
	assert.True(t, MaterialsCompatible("plastic", "unknown"))
	assert.True(t, MaterialsCompatible("", "glass"))
	assert.True(t, MaterialsCompatible("", ""))
	assert.False(t, MaterialsCompatible("glass", "plastic"))
}

func TestIsSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b model.HistoryEntry
		want bool
	}{
		{"identical", entry("plastic water bottle", "plastic"), entry("plastic water bottle", "plastic"), true},
		{"plural and case", entry("Aluminum Cans", "aluminum"), entry("aluminum can", "aluminum"), true},
		{"unknown material matches known", entry("aluminum can", "unknown"), entry("aluminum can", "metal"), true},
		{"different known materials never match", entry("bottle", "plastic"), entry("bottle", "glass"), false},
		// small set: 1 shared of 3 total is 0.33, below 0.34.
		{"small set below jaccard", entry("paper cup", "unknown"), entry("paper bag", "unknown"), false},
		{"small set subset", entry("coffee cup", "paper"), entry("cup", "paper"), true},
		// large set: {starbuck, paper, cup, lid} vs {paper, cup, lid}: 3/4.
		{"large set match", entry("Starbucks paper cup lid", "unknown"), entry("paper cup lid", "unknown"), true},
		// large sets sharing two of six tokens.
		{"large set below jaccard", entry("glass pasta sauce jar", "glass"), entry("glass jam jar lid", "glass"), false},
		{"disjoint", entry("banana peel", "organic"), entry("pizza box", "unknown"), false},
		{"material fallback", entry("", "styrofoam"), entry("the item", "Styrofoam"), true},
		{"no tokens", entry("", "unknown"), entry("", "unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSimilar(tt.a, tt.b))
			assert.Equal(t, tt.want, IsSimilar(tt.b, tt.a), "similarity must be symmetric")
		})
	}
}

func TestIsSimilarThresholdBoundaries(t *testing.T) {
	// 1 shared token, 2 total: jaccard 0.5 with a 1-token smaller set.
	assert.True(t, IsSimilar(entry("can", "unknown"), entry("soda can", "unknown")))
	// 1 shared token of 4: jaccard 0.25.
	assert.False(t, IsSimilar(entry("tin can", "unknown"), entry("can opener handle", "unknown")))
	// a three-token set needs two shared tokens.
	assert.False(t, IsSimilar(entry("red wine bottle", "unknown"), entry("blue beer bottle", "unknown")))
}

func TestFindMatch(t *testing.T) {
	entries := []model.HistoryEntry{
		entry("pizza box", "cardboard"),
		entry("plastic bottle", "plastic"),
		entry("plastic bottle cap", "plastic"),
	}

	assert.Equal(t, 1, FindMatch(entries, entry("plastic bottles", "plastic")))
	assert.Equal(t, -1, FindMatch(entries, entry("plastic bottle", "glass")))
	assert.Equal(t, -1, FindMatch(entries, entry("egg carton", "unknown")))
	assert.Equal(t, -1, FindMatch(nil, entry("egg carton", "unknown")))
}
