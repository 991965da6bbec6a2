package pipeline

// Schema describes the columns a pipeline was fitted on.
type Schema struct {
	FeatureNames []string
}

// Matches reports whether names equal the fitted feature names, in order.
func (s Schema) Matches(names []string) bool {
	if len(names) != len(s.FeatureNames) {
		return false
	}
	for i, n := range names {
		if s.FeatureNames[i] != n {
			return false
		}
	}
	return true
}
