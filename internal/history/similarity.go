package history

import (
	"github.com/Veraticus/sortwise/internal/model"
)

// Match thresholds. These are tuned against real scan data and changing them
// changes which scans merge, which in turn changes points.
const (
	smallSetMaxTokens    = 2
	smallSetMinIntersect = 1
	smallSetMinJaccard   = 0.34
	largeSetMinIntersect = 2
	largeSetMinJaccard   = 0.5
	noMatch              = -1
)

// MaterialsCompatible reports whether two materials may describe the same
// item: they are equal after normalization or at least one is unknown.
func MaterialsCompatible(a, b string) bool {
	na, nb := NormalizeMaterial(a), NormalizeMaterial(b)
	return na == nb || !materialKnown(na) || !materialKnown(nb)
}

// IsSimilar reports whether a and b are the same physical item.
func IsSimilar(a, b model.HistoryEntry) bool {
	if !MaterialsCompatible(a.Material, b.Material) {
		return false
	}

	ta := similarityTokens(a.Item, a.Material)
	tb := similarityTokens(b.Item, b.Material)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}

	intersection := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	jaccard := float64(intersection) / float64(union)

	smaller := min(len(ta), len(tb))
	if smaller <= smallSetMaxTokens {
		return intersection >= smallSetMinIntersect && jaccard >= smallSetMinJaccard
	}
	return intersection >= min(largeSetMinIntersect, smaller) && jaccard >= largeSetMinJaccard
}

// FindMatch returns the index of the first entry similar to incoming, or -1.
func FindMatch(entries []model.HistoryEntry, incoming model.HistoryEntry) int {
	for i, existing := range entries {
		if IsSimilar(existing, incoming) {
			return i
		}
	}
	return noMatch
}
