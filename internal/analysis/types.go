package analysis

import (
	"context"
	"encoding/json"

	"github.com/drbn-app/drbn-backend/internal/models"
)

// Generator is the capability interface every pipeline depends on. One
// upstream model call per invocation; callers decide what to persist.
type Generator interface {
	// GeneratePlan returns the full structured plan (score, derived feature
	// scores, tiered routine, safety notes) for a profile and optional photos.
	GeneratePlan(ctx context.Context, req PlanRequest) (*Plan, error)

	// QuickAnalysis runs the lightweight profile analysis and returns the
	// model's JSON object verbatim.
	QuickAnalysis(ctx context.Context, req QuickRequest) (map[string]interface{}, error)

	// AnalyzePhoto returns a free-text cosmetic coaching reply for one selfie.
	AnalyzePhoto(ctx context.Context, req PhotoRequest) (string, error)
}

// PhotoSet carries up to three canonical angles as data-URLs.
type PhotoSet struct {
	Front string `json:"front,omitempty"`
	Left  string `json:"left,omitempty"`
	Right string `json:"right,omitempty"`
}

func (p PhotoSet) Empty() bool {
	return p.Front == "" && p.Left == "" && p.Right == ""
}

// CheckInContext summarizes the latest check-in for prompt context.
type CheckInContext struct {
	PreviousScore    int
	PreviousConcerns []string
}

type PlanRequest struct {
	Profile  *models.Profile
	History  *CheckInContext
	Photos   PhotoSet
	Language string
}

type QuickRequest struct {
	Profile   map[string]interface{}
	PhotoData string
	Language  string
}

type PhotoRequest struct {
	ImageBase64 string
	Prompt      string
	Language    string
}

// Plan is the parsed v2 analysis response.
type Plan struct {
	OverallScore    int               `json:"overall_score"`
	Summary         string            `json:"summary"`
	DerivedFeatures *PlanFeatures     `json:"derived_features,omitempty"`
	Routine         PlanRoutine       `json:"routine"`
	ToolsAndActions []PlanTool        `json:"tools_and_actions,omitempty"`
	NutritionBasics map[string]string `json:"nutrition_basics,omitempty"`
	SafetyNotes     []string          `json:"safety_notes,omitempty"`

	// Raw is the cleaned model output the plan was parsed from.
	Raw json.RawMessage `json:"-"`
}

type PlanFeatures struct {
	UnevenToneScore     *int     `json:"uneven_tone_score,omitempty"`
	TextureScore        *int     `json:"texture_score,omitempty"`
	OilinessScore       *int     `json:"oiliness_score,omitempty"`
	BarrierComfortScore *int     `json:"barrier_comfort_score,omitempty"`
	DetectedConcerns    []string `json:"detected_concerns,omitempty"`
	AINotes             string   `json:"ai_notes,omitempty"`
}

type PlanRoutine struct {
	Morning []PlanStep `json:"morning,omitempty"`
	Midday  []PlanStep `json:"midday,omitempty"`
	Evening []PlanStep `json:"evening,omitempty"`
	Weekly  []PlanStep `json:"weekly,omitempty"`
}

// Sections returns the routine slots in canonical order.
func (r PlanRoutine) Sections() []struct {
	TimeOfDay string
	Steps     []PlanStep
} {
	return []struct {
		TimeOfDay string
		Steps     []PlanStep
	}{
		{"morning", r.Morning},
		{"midday", r.Midday},
		{"evening", r.Evening},
		{"weekly", r.Weekly},
	}
}

type PlanStep struct {
	StepOrder    int          `json:"step_order"`
	Category     string       `json:"category"`
	Title        string       `json:"title"`
	Instructions string       `json:"instructions"`
	Timing       string       `json:"timing,omitempty"`
	Frequency    string       `json:"frequency,omitempty"`
	Products     PlanProducts `json:"products"`
}

type PlanProducts struct {
	Best    *PlanProduct `json:"best,omitempty"`
	Budget  *PlanProduct `json:"budget,omitempty"`
	Premium *PlanProduct `json:"premium,omitempty"`
}

// ByTier returns the present recommendations in tier order, at most one per
// tier by construction.
func (p PlanProducts) ByTier() []struct {
	Tier    string
	Product *PlanProduct
} {
	out := make([]struct {
		Tier    string
		Product *PlanProduct
	}, 0, 3)
	for _, t := range []struct {
		Tier    string
		Product *PlanProduct
	}{
		{"best", p.Best},
		{"budget", p.Budget},
		{"premium", p.Premium},
	} {
		if t.Product != nil {
			out = append(out, t)
		}
	}
	return out
}

type PlanProduct struct {
	ProductName    string   `json:"product_name"`
	Brand          string   `json:"brand,omitempty"`
	KeyIngredients []string `json:"key_ingredients,omitempty"`
	WhyRecommended string   `json:"why_recommended,omitempty"`
	HowToUse       string   `json:"how_to_use,omitempty"`
	Cautions       string   `json:"cautions,omitempty"`
	Alternatives   []string `json:"alternatives,omitempty"`
	EstimatedPrice *float64 `json:"estimated_price,omitempty"`
}

type PlanTool struct {
	Tool         string `json:"tool"`
	Instructions string `json:"instructions,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	StopIf       string `json:"stop_if,omitempty"`
}
