package predictor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/domain"
)

func writeBundle(t *testing.T, dir string, overrides map[string]interface{}) {
	t.Helper()

	bundle := map[string]interface{}{
		filePersona: classifierArtifact{
			FeatureColumns: []string{domain.FeatAOV, domain.FeatLTV},
			Scaler:         scaler{Mean: []float64{50, 200}, Std: []float64{10, 50}},
			Centroids: map[string][]float64{
				domain.PersonaBrandBuilder:       {1, 1},
				domain.PersonaDiscountDiscounter: {-1, -1},
			},
			FeatureImportances: map[string]float64{
				domain.FeatAOV: 0.7,
				domain.FeatLTV: 0.3,
			},
		},
		fileMaturity: classifierArtifact{
			FeatureColumns: []string{domain.FeatMonthlyRevenue},
			Scaler:         scaler{Mean: []float64{25000}, Std: []float64{10000}},
			Centroids: map[string][]float64{
				domain.MaturityStartup: {-1},
				domain.MaturityGrowth:  {1},
			},
		},
		fileClusterer: clustererArtifact{
			FeatureColumns: []string{domain.FeatAOV, domain.FeatLTV},
			Scaler:         scaler{Mean: []float64{50, 200}, Std: []float64{10, 50}},
			Centroids:      [][]float64{{0, 0}, {2, 2}},
		},
		fileRanker: rankerArtifact{
			FeatureColumns: []string{domain.FeatAOV},
			Scaler:         scaler{Mean: []float64{50}, Std: []float64{10}},
			Weights:        []float64{10},
			Intercept:      50,
		},
		fileBenchmarks: map[int]domain.PeerBenchmark{
			0: {domain.FeatAOV: {P25: 30, P50: 50, P75: 80}},
			1: {domain.FeatAOV: {P25: 60, P50: 90, P75: 140}},
		},
		fileMetadata: Metadata{ModelVersion: "2.3", BaselineAccuracy: 0.9},
	}
	for name, v := range overrides {
		bundle[name] = v
	}

	for name, v := range bundle {
		if v == nil {
			continue
		}
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
}

func loadedRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	writeBundle(t, dir, nil)
	r := NewRegistry(context.Background(), appconfig.ArtifactsConfig{Type: "local", LocalPath: dir})
	require.True(t, r.Ready(), r.Reason())
	return r
}

func TestRegistryLoad(t *testing.T) {
	r := loadedRegistry(t)

	assert.Equal(t, "2.3", r.Version())
	assert.InDelta(t, 0.9, r.Metadata().BaselineAccuracy, 1e-9)
	assert.Len(t, r.Benchmarks(), 2)
}

func TestRegistryUnavailable(t *testing.T) {
	r := NewRegistry(context.Background(), appconfig.ArtifactsConfig{
		Type:      "local",
		LocalPath: filepath.Join(t.TempDir(), "nope"),
	})

	assert.False(t, r.Ready())
	assert.NotEmpty(t, r.Reason())
	assert.Empty(t, r.Version())
	assert.Nil(t, r.Benchmarks())

	_, _, err := r.Persona().Classify(domain.FeatureVector{})
	assert.ErrorIs(t, err, ErrModelsNotLoaded)
	_, err = r.Clusterer().Cluster(domain.FeatureVector{})
	assert.ErrorIs(t, err, ErrModelsNotLoaded)
	_, err = r.Ranker().Rank(domain.FeatureVector{})
	assert.ErrorIs(t, err, ErrModelsNotLoaded)
}

func TestClassifyNearestCentroid(t *testing.T) {
	r := loadedRegistry(t)

	// aov=60, ltv=250 standardizes to (1, 1), exactly the Brand Builder
	// centroid.
	label, conf, err := r.Persona().Classify(domain.FeatureVector{
		domain.FeatAOV: 60,
		domain.FeatLTV: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaBrandBuilder, label)
	assert.Greater(t, conf, 0.5)
	assert.LessOrEqual(t, conf, 1.0)

	label, _, err = r.Persona().Classify(domain.FeatureVector{
		domain.FeatAOV: 40,
		domain.FeatLTV: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaDiscountDiscounter, label)
}

func TestClassifyMissingFeaturesReadAsZero(t *testing.T) {
	r := loadedRegistry(t)

	// Empty vector standardizes to (-5, -4), nearer the negative centroid.
	label, _, err := r.Persona().Classify(domain.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaDiscountDiscounter, label)
}

func TestCluster(t *testing.T) {
	r := loadedRegistry(t)

	group, err := r.Clusterer().Cluster(domain.FeatureVector{
		domain.FeatAOV: 50,
		domain.FeatLTV: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, group)

	group, err = r.Clusterer().Cluster(domain.FeatureVector{
		domain.FeatAOV: 72,
		domain.FeatLTV: 310,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, group)
}

func TestRankLinearAndClamped(t *testing.T) {
	r := loadedRegistry(t)

	// aov=60 standardizes to 1: 50 + 10*1 = 60.
	score, err := r.Ranker().Rank(domain.FeatureVector{domain.FeatAOV: 60})
	require.NoError(t, err)
	assert.InDelta(t, 60, score, 1e-9)

	score, err = r.Ranker().Rank(domain.FeatureVector{domain.FeatAOV: 500})
	require.NoError(t, err)
	assert.InDelta(t, 100, score, 1e-9, "scores clamp at 100")

	score, err = r.Ranker().Rank(domain.FeatureVector{domain.FeatAOV: -500})
	require.NoError(t, err)
	assert.InDelta(t, 0, score, 1e-9, "scores clamp at 0")
}

func TestKeyFeaturesOrderedByImportance(t *testing.T) {
	r := loadedRegistry(t)

	fv := domain.FeatureVector{domain.FeatAOV: 42, domain.FeatLTV: 7}
	top := r.KeyFeatures(fv, 2)
	require.Len(t, top, 2)
	assert.Equal(t, domain.FeatAOV, top[0].Name)
	assert.InDelta(t, 42.0, top[0].Value, 1e-9)
	assert.Equal(t, domain.FeatLTV, top[1].Name)

	assert.Len(t, r.KeyFeatures(fv, 1), 1)
}

func TestRegistryRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, map[string]interface{}{
		fileRanker: rankerArtifact{
			FeatureColumns: []string{domain.FeatAOV, domain.FeatLTV},
			Weights:        []float64{1},
		},
	})

	r := NewRegistry(context.Background(), appconfig.ArtifactsConfig{Type: "local", LocalPath: dir})
	assert.False(t, r.Ready())
	assert.Contains(t, r.Reason(), fileRanker)
}

func TestMetadataDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, map[string]interface{}{fileMetadata: nil})

	r := NewRegistry(context.Background(), appconfig.ArtifactsConfig{
		Type: "local", LocalPath: dir, ModelVersion: "1.0",
	})
	require.True(t, r.Ready(), r.Reason())
	assert.Equal(t, "1.0", r.Version())
	assert.InDelta(t, 0.85, r.Metadata().BaselineAccuracy, 1e-9)
}
