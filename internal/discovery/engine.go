package discovery

import (
	"context"
	"fmt"

	"github.com/bravola/insights/internal/benchmark"
	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/features"
)

// KeyFeatureSource surfaces the model inputs that most influenced a
// classification. The model registry implements it.
type KeyFeatureSource interface {
	KeyFeatures(fv domain.FeatureVector, n int) []domain.KeyFeature
}

// Predictor is the classification subset of the model contract the engine
// needs.
type Predictor interface {
	Classify(fv domain.FeatureVector) (label string, confidence float64, err error)
}

// Engine assigns persona and maturity labels to merchants. There is no
// heuristic fallback: a wrong persona is worse than an explicit
// models-not-loaded error, so classification failures propagate.
type Engine struct {
	features    benchmark.FeatureSource
	persona     Predictor
	maturity    Predictor
	keyFeatures KeyFeatureSource
	version     string
}

// NewEngine wires a discovery engine.
func NewEngine(source benchmark.FeatureSource, persona, maturity Predictor, keyFeatures KeyFeatureSource, version string) *Engine {
	return &Engine{
		features:    source,
		persona:     persona,
		maturity:    maturity,
		keyFeatures: keyFeatures,
		version:     version,
	}
}

// AnalyzeProfile classifies the merchant's persona and maturity stage and
// attaches the descriptive profiles for both labels.
func (e *Engine) AnalyzeProfile(ctx context.Context, merchantID string) (*domain.DiscoveryResult, error) {
	fv, err := e.features.Vector(ctx, merchantID, features.SetAll)
	if err != nil {
		return nil, fmt.Errorf("discovery %s: %w", merchantID, err)
	}

	persona, personaConf, err := e.persona.Classify(fv)
	if err != nil {
		return nil, err
	}
	maturity, maturityConf, err := e.maturity.Classify(fv)
	if err != nil {
		return nil, err
	}

	result := &domain.DiscoveryResult{
		Persona:            persona,
		PersonaConfidence:  personaConf,
		MaturityStage:      maturity,
		MaturityConfidence: maturityConf,
		PersonaProfile:     ProfileFor(persona),
		MaturityProfile:    MaturityFor(maturity),
		ModelVersion:       e.version,
	}
	if e.keyFeatures != nil {
		result.KeyFeatures = e.keyFeatures.KeyFeatures(fv, 5)
	}
	return result, nil
}
