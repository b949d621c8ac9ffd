package predictor

import (
	"fmt"
	"math"
	"sort"

	"github.com/bravola/insights/internal/domain"
)

// classifierArtifact is the serialized form of a nearest-centroid classifier.
type classifierArtifact struct {
	FeatureColumns     []string             `json:"feature_columns"`
	Scaler             scaler               `json:"scaler"`
	Centroids          map[string][]float64 `json:"centroids"`
	FeatureImportances map[string]float64   `json:"feature_importances"`
}

// centroidClassifier assigns the label of the nearest centroid in scaled
// feature space, with a softmax over negative distances as confidence.
type centroidClassifier struct {
	art classifierArtifact
}

func newCentroidClassifier(art classifierArtifact) (*centroidClassifier, error) {
	if len(art.Centroids) == 0 {
		return nil, fmt.Errorf("classifier artifact has no centroids")
	}
	for label, c := range art.Centroids {
		if len(c) != len(art.FeatureColumns) {
			return nil, fmt.Errorf("centroid %q has %d dims, want %d", label, len(c), len(art.FeatureColumns))
		}
	}
	return &centroidClassifier{art: art}, nil
}

func (m *centroidClassifier) Classify(fv domain.FeatureVector) (string, float64, error) {
	x := vectorize(fv, m.art.FeatureColumns, m.art.Scaler)

	labels := make([]string, 0, len(m.art.Centroids))
	for label := range m.art.Centroids {
		labels = append(labels, label)
	}
	sort.Strings(labels) // deterministic tie-breaking

	best := ""
	bestDist := math.Inf(1)
	dists := make([]float64, len(labels))
	for i, label := range labels {
		d := math.Sqrt(squaredDistance(x, m.art.Centroids[label]))
		dists[i] = d
		if d < bestDist {
			best, bestDist = label, d
		}
	}

	// Softmax over negative distances, shifted by the minimum so large
	// distances do not underflow everything to zero.
	var total float64
	var bestExp float64
	for i, d := range dists {
		e := math.Exp(-(d - bestDist))
		total += e
		if labels[i] == best {
			bestExp = e
		}
	}
	confidence := bestExp / total

	return best, confidence, nil
}

// clustererArtifact is the serialized form of a k-means model.
type clustererArtifact struct {
	FeatureColumns []string    `json:"feature_columns"`
	Scaler         scaler      `json:"scaler"`
	Centroids      [][]float64 `json:"centroids"`
}

type kmeansClusterer struct {
	art clustererArtifact
}

func newKMeansClusterer(art clustererArtifact) (*kmeansClusterer, error) {
	if len(art.Centroids) == 0 {
		return nil, fmt.Errorf("clusterer artifact has no centroids")
	}
	for i, c := range art.Centroids {
		if len(c) != len(art.FeatureColumns) {
			return nil, fmt.Errorf("cluster %d has %d dims, want %d", i, len(c), len(art.FeatureColumns))
		}
	}
	return &kmeansClusterer{art: art}, nil
}

func (m *kmeansClusterer) Cluster(fv domain.FeatureVector) (int, error) {
	x := vectorize(fv, m.art.FeatureColumns, m.art.Scaler)

	best := 0
	bestDist := math.Inf(1)
	for i, c := range m.art.Centroids {
		if d := squaredDistance(x, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// rankerArtifact is the serialized form of a linear scoring model.
type rankerArtifact struct {
	FeatureColumns []string  `json:"feature_columns"`
	Scaler         scaler    `json:"scaler"`
	Weights        []float64 `json:"weights"`
	Intercept      float64   `json:"intercept"`
}

type linearRanker struct {
	art rankerArtifact
}

func newLinearRanker(art rankerArtifact) (*linearRanker, error) {
	if len(art.Weights) != len(art.FeatureColumns) {
		return nil, fmt.Errorf("ranker has %d weights, want %d", len(art.Weights), len(art.FeatureColumns))
	}
	return &linearRanker{art: art}, nil
}

func (m *linearRanker) Rank(fv domain.FeatureVector) (float64, error) {
	x := vectorize(fv, m.art.FeatureColumns, m.art.Scaler)

	score := m.art.Intercept
	for i, w := range m.art.Weights {
		score += w * x[i]
	}
	return math.Max(0, math.Min(100, score)), nil
}

// topFeatures returns the n highest-importance features from a classifier
// artifact, paired with the merchant's actual values.
func topFeatures(art classifierArtifact, fv domain.FeatureVector, n int) []domain.KeyFeature {
	out := make([]domain.KeyFeature, 0, len(art.FeatureImportances))
	for name, importance := range art.FeatureImportances {
		out = append(out, domain.KeyFeature{Name: name, Value: fv.Get(name), Importance: importance})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
