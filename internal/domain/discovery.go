package domain

// Persona labels assigned by the discovery classifier.
const (
	PersonaDiscountDiscounter = "Discount Discounter"
	PersonaBrandBuilder       = "Brand Builder"
	PersonaProductPusher      = "Product Pusher"
	PersonaLifecycleMaster    = "Lifecycle Master"
	PersonaSegmentSpecialist  = "Segment Specialist"
)

// Maturity stages assigned by the discovery classifier, ordered from earliest
// to latest.
const (
	MaturityStartup = "Startup"
	MaturityGrowth  = "Growth"
	MaturityScaleUp = "Scale-Up"
	MaturityMature  = "Mature"
)

// KeyFeature is one of the top model inputs that drove a classification.
type KeyFeature struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
}

// PersonaProfile describes the traits of an assigned persona.
type PersonaProfile struct {
	Characteristics []string `json:"characteristics"`
	Strengths       []string `json:"strengths"`
	Opportunities   []string `json:"opportunities"`
}

// MaturityProfile describes an assigned maturity stage and the path to the
// next one.
type MaturityProfile struct {
	Indicators []string `json:"indicators"`
	NextStage  []string `json:"next_stage"`
}

// DiscoveryResult is the full output of a profile analysis.
type DiscoveryResult struct {
	Persona            string          `json:"persona"`
	PersonaConfidence  float64         `json:"persona_confidence"`
	MaturityStage      string          `json:"maturity_stage"`
	MaturityConfidence float64         `json:"maturity_confidence"`
	KeyFeatures        []KeyFeature    `json:"key_features"`
	PersonaProfile     PersonaProfile  `json:"persona_characteristics"`
	MaturityProfile    MaturityProfile `json:"maturity_indicators"`
	ModelVersion       string          `json:"model_version"`
}
