package model

// Model is a generic supervised learning interface.
type Model interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// Projector is for unsupervised projections such as PCA
// (fit on a sample, project any rows with the same columns).
type Projector interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
}
