package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/pkg/logger"
)

// Artifact bundle file names produced by the offline training run.
const (
	filePersona    = "persona_classifier.json"
	fileMaturity   = "maturity_classifier.json"
	fileClusterer  = "peer_clusterer.json"
	fileRanker     = "strategy_ranker.json"
	fileBenchmarks = "peer_benchmarks.json"
	fileTemplates  = "action_templates.json"
	fileMetadata   = "training_metadata.json"
)

// Metadata describes the training run that produced the bundle. The drift
// monitor compares live accuracy against BaselineAccuracy.
type Metadata struct {
	ModelVersion     string    `json:"model_version"`
	TrainedAt        time.Time `json:"trained_at"`
	BaselineAccuracy float64   `json:"baseline_accuracy"`
	SampleCount      int       `json:"sample_count"`
}

// Registry owns the loaded artifact bundle. Availability is decided once at
// construction and never changes afterwards; a process with broken models
// restarts to recover rather than racing a reload.
type Registry struct {
	ready  bool
	reason string

	personaArt classifierArtifact
	persona    *centroidClassifier
	maturity   *centroidClassifier
	clusterer  *kmeansClusterer
	ranker     *linearRanker

	benchmarks map[int]domain.PeerBenchmark
	templates  []domain.ActionTemplate
	meta       Metadata
}

// artifactReader abstracts where bundle files come from.
type artifactReader func(name string) ([]byte, error)

// NewRegistry loads the bundle described by cfg. It never fails construction:
// a load error produces a registry whose models answer ErrModelsNotLoaded,
// with the reason kept for health reporting.
func NewRegistry(ctx context.Context, cfg appconfig.ArtifactsConfig) *Registry {
	var read artifactReader
	var err error

	switch cfg.Type {
	case "s3":
		read, err = s3Reader(ctx, cfg)
	default:
		read = localReader(cfg.LocalPath)
	}
	if err != nil {
		return unavailable(err.Error())
	}

	r, err := load(read, cfg.ModelVersion)
	if err != nil {
		return unavailable(err.Error())
	}
	logger.Info("model artifacts loaded",
		"version", r.meta.ModelVersion,
		"peer_groups", len(r.benchmarks),
		"source", cfg.Type)
	return r
}

func unavailable(reason string) *Registry {
	logger.Error("model artifacts unavailable", "reason", reason)
	return &Registry{ready: false, reason: reason}
}

func localReader(dir string) artifactReader {
	return func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}
}

func s3Reader(ctx context.Context, cfg appconfig.ArtifactsConfig) (artifactReader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)

	return func(name string) ([]byte, error) {
		key := name
		if cfg.S3Prefix != "" {
			key = cfg.S3Prefix + "/" + name
		}
		result, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(cfg.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("getting object from S3: %w", err)
		}
		defer result.Body.Close()
		return io.ReadAll(result.Body)
	}, nil
}

func load(read artifactReader, fallbackVersion string) (*Registry, error) {
	r := &Registry{ready: true}

	if err := readJSON(read, filePersona, &r.personaArt); err != nil {
		return nil, err
	}
	persona, err := newCentroidClassifier(r.personaArt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePersona, err)
	}
	r.persona = persona

	var maturityArt classifierArtifact
	if err := readJSON(read, fileMaturity, &maturityArt); err != nil {
		return nil, err
	}
	if r.maturity, err = newCentroidClassifier(maturityArt); err != nil {
		return nil, fmt.Errorf("%s: %w", fileMaturity, err)
	}

	var clusterArt clustererArtifact
	if err := readJSON(read, fileClusterer, &clusterArt); err != nil {
		return nil, err
	}
	if r.clusterer, err = newKMeansClusterer(clusterArt); err != nil {
		return nil, fmt.Errorf("%s: %w", fileClusterer, err)
	}

	var rankArt rankerArtifact
	if err := readJSON(read, fileRanker, &rankArt); err != nil {
		return nil, err
	}
	if r.ranker, err = newLinearRanker(rankArt); err != nil {
		return nil, fmt.Errorf("%s: %w", fileRanker, err)
	}

	if err := readJSON(read, fileBenchmarks, &r.benchmarks); err != nil {
		return nil, err
	}

	// Templates and metadata are optional; built-in defaults cover both.
	if data, err := read(fileTemplates); err == nil {
		if err := json.Unmarshal(data, &r.templates); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", fileTemplates, err)
		}
	}
	r.meta = Metadata{ModelVersion: fallbackVersion, BaselineAccuracy: 0.85}
	if data, err := read(fileMetadata); err == nil {
		if err := json.Unmarshal(data, &r.meta); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", fileMetadata, err)
		}
		if r.meta.ModelVersion == "" {
			r.meta.ModelVersion = fallbackVersion
		}
		if r.meta.BaselineAccuracy == 0 {
			r.meta.BaselineAccuracy = 0.85
		}
	}

	return r, nil
}

func readJSON(read artifactReader, name string, target interface{}) error {
	data, err := read(name)
	if err != nil {
		return fmt.Errorf("reading artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

// Ready reports whether the bundle loaded. Reason is empty when ready.
func (r *Registry) Ready() bool { return r.ready }

// Reason explains an unavailable registry for health reporting.
func (r *Registry) Reason() string { return r.reason }

// Version is the loaded bundle's model version, or empty when unavailable.
func (r *Registry) Version() string {
	if !r.ready {
		return ""
	}
	return r.meta.ModelVersion
}

// Metadata returns the training run details. Zero value when unavailable.
func (r *Registry) Metadata() Metadata {
	if !r.ready {
		return Metadata{}
	}
	return r.meta
}

// Benchmarks returns the peer percentile tables keyed by cluster id.
func (r *Registry) Benchmarks() map[int]domain.PeerBenchmark {
	if !r.ready {
		return nil
	}
	return r.benchmarks
}

// Templates returns the bundle's action template catalog, or nil when the
// bundle carries none and callers should use their built-in catalog.
func (r *Registry) Templates() []domain.ActionTemplate {
	if !r.ready {
		return nil
	}
	return r.templates
}

// KeyFeatures returns the n most important persona-model features with the
// merchant's actual values filled in.
func (r *Registry) KeyFeatures(fv domain.FeatureVector, n int) []domain.KeyFeature {
	if !r.ready {
		return nil
	}
	return topFeatures(r.personaArt, fv, n)
}

// Persona returns the persona classifier as a Predictor.
func (r *Registry) Persona() Predictor {
	return &boundModel{r: r, classify: func() *centroidClassifier { return r.persona }}
}

// Maturity returns the maturity classifier as a Predictor.
func (r *Registry) Maturity() Predictor {
	return &boundModel{r: r, classify: func() *centroidClassifier { return r.maturity }}
}

// Clusterer returns the peer-group model as a Predictor.
func (r *Registry) Clusterer() Predictor { return &boundModel{r: r} }

// Ranker returns the strategy scoring model as a Predictor.
func (r *Registry) Ranker() Predictor { return &boundModel{r: r} }

// boundModel adapts the registry's concrete models to the Predictor
// interface, answering ErrModelsNotLoaded when the bundle never loaded.
type boundModel struct {
	r        *Registry
	classify func() *centroidClassifier
}

func (b *boundModel) Classify(fv domain.FeatureVector) (string, float64, error) {
	if !b.r.ready || b.classify == nil {
		return "", 0, ErrModelsNotLoaded
	}
	return b.classify().Classify(fv)
}

func (b *boundModel) Cluster(fv domain.FeatureVector) (int, error) {
	if !b.r.ready {
		return 0, ErrModelsNotLoaded
	}
	return b.r.clusterer.Cluster(fv)
}

func (b *boundModel) Rank(fv domain.FeatureVector) (float64, error) {
	if !b.r.ready {
		return 0, ErrModelsNotLoaded
	}
	return b.r.ranker.Rank(fv)
}
