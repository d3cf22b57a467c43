package variants

// ResolveModel returns the model whose TierIndex equals selection exactly.
// A selection of a different length never matches. When duplicates exist the
// first one in list order wins.
func ResolveModel(models []Model, selection []int) (Model, bool) {
	idx := IndexOfModel(models, selection)
	if idx < 0 {
		return Model{}, false
	}
	return models[idx], true
}

// IndexOfModel is ResolveModel returning a position, or -1.
func IndexOfModel(models []Model, selection []int) int {
	if len(selection) == 0 {
		return -1
	}
	for i := range models {
		if sameIndex(models[i].TierIndex, selection) {
			return i
		}
	}
	return -1
}

func sameIndex(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
