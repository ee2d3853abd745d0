package analysis

import (
	"fmt"
	"strings"

	"github.com/drbn-app/drbn-backend/internal/models"
)

const planSystemPromptEN = `You are an expert dermatologist specializing in melanin-rich skin care. You are a 360 beauty coach providing personalized, professional, non-generic guidance.

CRITICAL DIRECTIVES:
1. This is cosmetic guidance ONLY, NOT medical diagnosis.
2. If you detect serious signs (severe/cystic acne, rapid skin changes, persistent irritation), recommend seeing a dermatologist.
3. Provide specific, not generic, recommendations.
4. For each key step (cleanser/treatment/moisturizer/SPF), provide EXACTLY 3 product picks: best, budget, premium.
5. Include tools & actions guidance (massage, gua sha, roller, etc.) with duration, frequency, and stop rules.
6. Adapt routines to skin type & sensitivity, main concerns (max 3), climate, budget tier, and check-in history if available.

RESPOND WITH STRICT JSON ONLY, no backticks, no extra text:
{
  "overall_score": 85,
  "summary": "...",
  "derived_features": {"uneven_tone_score": 75, "texture_score": 80, "oiliness_score": 60, "barrier_comfort_score": 85, "detected_concerns": ["..."], "ai_notes": "..."},
  "routine": {
    "morning": [{"step_order": 1, "category": "cleanser", "title": "...", "instructions": "...", "timing": "...", "products": {"best": {"product_name": "...", "brand": "...", "key_ingredients": ["..."], "why_recommended": "...", "how_to_use": "...", "cautions": "...", "alternatives": ["..."], "estimated_price": 25.0}, "budget": {}, "premium": {}}}],
    "midday": [], "evening": [], "weekly": []
  },
  "tools_and_actions": [{"tool": "...", "instructions": "...", "duration": "...", "frequency": "...", "stop_if": "..."}],
  "nutrition_basics": {"hydration": "...", "anti_inflammatory": "...", "protein_fiber": "..."},
  "safety_notes": ["..."]
}`

const planSystemPromptFR = `Tu es un dermatologue expert specialise dans les soins des peaux riches en melanine. Tu es un coach beaute 360 qui fournit des conseils personnalises, professionnels et non generiques.

DIRECTIVES CRITIQUES:
1. Ceci est un conseil cosmetique UNIQUEMENT, PAS un diagnostic medical.
2. Si tu detectes des signes graves (acne severe/kystique, changements cutanes rapides, irritation persistante), recommande de consulter un dermatologue.
3. Fournis des recommandations specifiques, pas generiques.
4. Pour chaque etape cle (nettoyant/traitement/hydratant/SPF), fournis EXACTEMENT 3 choix de produits: best, budget, premium.
5. Inclus des orientations sur les outils & actions (massage, gua sha, rouleau, etc.) avec duree, frequence et regles d'arret.
6. Adapte les routines au type de peau & sensibilite, preoccupations principales (max 3), climat, budget, et historique des check-ins si disponible.

REPONDS EN JSON STRICT UNIQUEMENT, sans backticks, sans texte supplementaire, avec la meme structure que le schema anglais (overall_score, summary, derived_features, routine.{morning,midday,evening,weekly}, tools_and_actions, nutrition_basics, safety_notes).`

func buildPlanPrompts(req PlanRequest) (system, user string) {
	p := req.Profile
	if p == nil {
		p = &models.Profile{}
	}
	if req.Language == "fr" {
		system = planSystemPromptFR
	} else {
		system = planSystemPromptEN
	}

	var b strings.Builder
	if req.Language == "fr" {
		b.WriteString("Analyse ce profil et genere une routine personnalisee complete:\n\nPROFIL:\n")
		fmt.Fprintf(&b, "- Type de peau: %s\n", orDefault(deref(p.SkinType), "Non specifie"))
		fmt.Fprintf(&b, "- Sensibilite: %s\n", orDefault(deref(p.Sensitivity), "Non specifie"))
		fmt.Fprintf(&b, "- Preoccupations: %s\n", orDefault(strings.Join(p.Concerns, ", "), "Aucune"))
		fmt.Fprintf(&b, "- Climat: %s\n", orDefault(deref(p.Climate), "Non specifie"))
		fmt.Fprintf(&b, "- Budget: %s\n", orDefault(deref(p.BudgetTier), "Standard"))
		fmt.Fprintf(&b, "- Frequence de rasage: %s\n", orDefault(deref(p.ShavingFrequency), "Non specifie"))
		fmt.Fprintf(&b, "- Allergies: %s\n", orDefault(strings.Join(p.Allergies, ", "), "Aucune"))
		if h := req.History; h != nil {
			fmt.Fprintf(&b, "\nHISTORIQUE:\n- Score precedent: %d/100\n- Preoccupations precedentes: %s\n", h.PreviousScore, strings.Join(h.PreviousConcerns, ", "))
		}
		if !req.Photos.Empty() {
			b.WriteString("\nPhotos de peau fournies pour analyse visuelle.\n")
		}
		b.WriteString("\nGenere: score global, resume, scores derives, routine matin (<=4 etapes), mi-journee (optionnel), soir (<=4 etapes), hebdomadaire (<=3), outils & actions, bases nutrition, notes de securite.")
	} else {
		b.WriteString("Analyze this profile and generate a complete personalized routine:\n\nPROFILE:\n")
		fmt.Fprintf(&b, "- Skin type: %s\n", orDefault(deref(p.SkinType), "Not specified"))
		fmt.Fprintf(&b, "- Sensitivity: %s\n", orDefault(deref(p.Sensitivity), "Not specified"))
		fmt.Fprintf(&b, "- Concerns: %s\n", orDefault(strings.Join(p.Concerns, ", "), "None"))
		fmt.Fprintf(&b, "- Climate: %s\n", orDefault(deref(p.Climate), "Not specified"))
		fmt.Fprintf(&b, "- Budget tier: %s\n", orDefault(deref(p.BudgetTier), "Standard"))
		fmt.Fprintf(&b, "- Shaving frequency: %s\n", orDefault(deref(p.ShavingFrequency), "Not specified"))
		fmt.Fprintf(&b, "- Allergies: %s\n", orDefault(strings.Join(p.Allergies, ", "), "None"))
		if h := req.History; h != nil {
			fmt.Fprintf(&b, "\nHISTORY:\n- Previous score: %d/100\n- Previous concerns: %s\n", h.PreviousScore, strings.Join(h.PreviousConcerns, ", "))
		}
		if !req.Photos.Empty() {
			b.WriteString("\nSkin photos provided for visual analysis.\n")
		}
		b.WriteString("\nGenerate: overall score, summary, derived metric scores, morning routine (<=4 steps), midday (optional, mainly SPF reapply), evening (<=4 steps), weekly (<=3 items), tools & actions, nutrition basics, safety notes.")
	}
	return system, b.String()
}

const quickSystemPromptEN = `You are an expert dermatologist specializing in melanin-rich skin care. Analyze the provided skin profile and generate personalized skincare recommendations.

IMPORTANT: Respond ONLY with a valid JSON object, no additional text, no backticks, no "json" prefix. The format must be:

{
  "skinType": "the skin type",
  "concerns": ["list", "of", "concerns"],
  "overallScore": 85,
  "summary": "Personalized analysis summary",
  "recommendations": [{"title": "Title", "description": "Detailed description", "priority": "high|medium|low"}],
  "morningRoutine": [{"step": 1, "product": "Product", "instructions": "Instructions", "timing": "Duration"}],
  "eveningRoutine": [{"step": 1, "product": "Product", "instructions": "Instructions", "timing": "Duration"}],
  "ingredients": [{"name": "Ingredient", "benefit": "Benefit", "safeForMelaninRich": true, "caution": "optional"}]
}`

const quickSystemPromptFR = `Tu es un dermatologue expert specialise dans les soins des peaux riches en melanine. Analyse le profil de peau fourni et genere des recommandations personnalisees de soins.

IMPORTANT: Reponds UNIQUEMENT avec un objet JSON valide, sans texte supplementaire, sans backticks, sans "json" au debut. Le format doit etre identique au schema anglais: skinType, concerns, overallScore, summary, recommendations, morningRoutine, eveningRoutine, ingredients.`

func buildQuickPrompts(req QuickRequest) (system, user string) {
	if req.Language == "fr" {
		system = quickSystemPromptFR
	} else {
		system = quickSystemPromptEN
	}

	var b strings.Builder
	if req.Language == "fr" {
		b.WriteString("Analyse ce profil de peau et genere des recommandations personnalisees:\n\n")
		fmt.Fprintf(&b, "Type de peau: %s\n", profileField(req.Profile, "skinType", "Non specifie"))
		fmt.Fprintf(&b, "Preoccupations: %s\n", profileField(req.Profile, "concerns", "Aucune"))
		fmt.Fprintf(&b, "Tranche d'age: %s\n", profileField(req.Profile, "ageRange", "Non specifie"))
		fmt.Fprintf(&b, "Exposition au soleil: %s\n", profileField(req.Profile, "sunExposure", "Non specifie"))
		fmt.Fprintf(&b, "Routine actuelle: %s\n", profileField(req.Profile, "currentRoutine", "Non specifie"))
		if req.PhotoData != "" {
			b.WriteString("Photo de peau fournie pour analyse visuelle.\n")
		}
		b.WriteString("\nGenere une analyse complete avec un score de sante de la peau (0-100), un resume personnalise, 3-4 recommandations prioritaires, une routine matin (4-5 etapes), une routine soir (4-5 etapes), et 5-6 ingredients recommandes (avec precautions pour peaux riches en melanine).")
	} else {
		b.WriteString("Analyze this skin profile and generate personalized recommendations:\n\n")
		fmt.Fprintf(&b, "Skin Type: %s\n", profileField(req.Profile, "skinType", "Not specified"))
		fmt.Fprintf(&b, "Concerns: %s\n", profileField(req.Profile, "concerns", "None"))
		fmt.Fprintf(&b, "Age Range: %s\n", profileField(req.Profile, "ageRange", "Not specified"))
		fmt.Fprintf(&b, "Sun Exposure: %s\n", profileField(req.Profile, "sunExposure", "Not specified"))
		fmt.Fprintf(&b, "Current Routine: %s\n", profileField(req.Profile, "currentRoutine", "Not specified"))
		if req.PhotoData != "" {
			b.WriteString("Skin photo provided for visual analysis.\n")
		}
		b.WriteString("\nGenerate a complete analysis with a skin health score (0-100), a personalized summary, 3-4 priority recommendations, a morning routine (4-5 steps), an evening routine (4-5 steps), and 5-6 recommended ingredients (with cautions for melanin-rich skin).")
	}
	return system, b.String()
}

func buildPhotoPrompt(req PhotoRequest) string {
	if p := strings.TrimSpace(req.Prompt); p != "" {
		return p
	}
	language := "English"
	if req.Language == "fr" {
		language = "French"
	}
	return fmt.Sprintf(`You are a premium cosmetic beauty coach specialized in melanin-rich skin.
Analyze the selfie for cosmetic insights only (NOT medical diagnosis). Be specific and actionable.
Return concise, structured recommendations (cleanser/treatment/moisturizer/SPF + 1-2 weekly actions) and include safety cautions for irritation/PIH risk.
Write in %s.`, language)
}

// profileField renders a loosely-typed profile value; string slices are
// comma-joined like the upstream prompt did.
func profileField(profile map[string]interface{}, key, fallback string) string {
	v, ok := profile[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case string:
		return orDefault(t, fallback)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return orDefault(strings.Join(parts, ", "), fallback)
	default:
		return orDefault(fmt.Sprintf("%v", t), fallback)
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
