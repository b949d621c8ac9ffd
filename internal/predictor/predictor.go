// Package predictor holds the trained-model contract and the JSON artifact
// implementations behind it. Models are loaded once at startup through a
// Registry; a registry that failed to load stays unavailable for the life of
// the process rather than flipping state at request time.
package predictor

import (
	"errors"

	"github.com/bravola/insights/internal/domain"
)

// ErrModelsNotLoaded is returned by model-backed operations when the artifact
// bundle could not be loaded. Callers that cannot approximate the answer
// (classification, benchmarking) propagate it; ranking callers degrade to an
// empty result instead.
var ErrModelsNotLoaded = errors.New("models not loaded")

// Predictor is what the analysis engines see. Implementations must be safe
// for concurrent use.
type Predictor interface {
	// Classify maps a feature vector onto a label with a confidence in [0,1].
	Classify(fv domain.FeatureVector) (label string, confidence float64, err error)

	// Cluster assigns the vector to a peer group.
	Cluster(fv domain.FeatureVector) (groupID int, err error)

	// Rank produces a base relevance score, nominally 0..100.
	Rank(fv domain.FeatureVector) (score float64, err error)
}

// scaler standardizes raw features column by column before a model sees them.
type scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// vectorize projects a feature map onto the model's ordered column list and
// standardizes it. Missing features read as zero before scaling; a zero std
// passes the centered value through unscaled.
func vectorize(fv domain.FeatureVector, columns []string, sc scaler) []float64 {
	out := make([]float64, len(columns))
	for i, name := range columns {
		v := fv.Get(name)
		if i < len(sc.Mean) {
			v -= sc.Mean[i]
		}
		if i < len(sc.Std) && sc.Std[i] != 0 {
			v /= sc.Std[i]
		}
		out[i] = v
	}
	return out
}

func squaredDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
