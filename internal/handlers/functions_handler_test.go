package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drbn-app/drbn-backend/internal/analysis"
)

type stubGenerator struct {
	quickResult map[string]interface{}
	photoText   string
	err         error
	calls       int
}

func (g *stubGenerator) GeneratePlan(context.Context, analysis.PlanRequest) (*analysis.Plan, error) {
	g.calls++
	return nil, g.err
}

func (g *stubGenerator) QuickAnalysis(context.Context, analysis.QuickRequest) (map[string]interface{}, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.quickResult, nil
}

func (g *stubGenerator) AnalyzePhoto(context.Context, analysis.PhotoRequest) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.photoText, nil
}

func newFunctionsApp(gen *stubGenerator) *fiber.App {
	app := fiber.New(fiber.Config{BodyLimit: 48 * 1024 * 1024})
	handler := NewFunctionsHandler(gen)
	app.Get("/health", handler.Health)
	app.Post("/skinAnalysis", handler.SkinAnalysis)
	app.Post("/analyzePhoto", handler.AnalyzePhoto)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestHealthEndpoint(t *testing.T) {
	app := newFunctionsApp(&stubGenerator{})
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "drbn-functions", body["service"])
	assert.NotEmpty(t, body["time"])
}

func TestSkinAnalysisRejectsWrongContentType(t *testing.T) {
	gen := &stubGenerator{}
	app := newFunctionsApp(gen)

	req := httptest.NewRequest("POST", "/skinAnalysis", strings.NewReader("profile=oily"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Zero(t, gen.calls)
}

func TestSkinAnalysisRequiresProfile(t *testing.T) {
	gen := &stubGenerator{}
	app := newFunctionsApp(gen)

	status, body := postJSON(t, app, "/skinAnalysis", `{"language":"en"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Missing profile data.", body["message"])
	assert.Zero(t, gen.calls)
}

func TestSkinAnalysisOversizedPhotoNeverReachesUpstream(t *testing.T) {
	gen := &stubGenerator{}
	app := newFunctionsApp(gen)

	var buf bytes.Buffer
	buf.WriteString(`{"profile":{"skinType":"oily"},"photoData":"`)
	buf.Write(bytes.Repeat([]byte("A"), maxInlinePhotoBytes+1))
	buf.WriteString(`"}`)

	status, body := postJSON(t, app, "/skinAnalysis", buf.String())
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "Image too large. Please upload a smaller image.", body["message"])
	assert.Zero(t, gen.calls)
}

func TestSkinAnalysisEchoesModelResult(t *testing.T) {
	gen := &stubGenerator{quickResult: map[string]interface{}{
		"skinType":       "oily",
		"overallScore":   float64(68),
		"concerns":       []interface{}{"acne"},
		"morningRoutine": []interface{}{map[string]interface{}{"step": 1, "product": "cleanser"}},
		"eveningRoutine": []interface{}{map[string]interface{}{"step": 1, "product": "retinoid"}},
	}}
	app := newFunctionsApp(gen)

	status, body := postJSON(t, app, "/skinAnalysis",
		`{"profile":{"skinType":"oily","concerns":["acne"],"ageRange":"25-35","sunExposure":"moderate","currentRoutine":"basic"},"language":"en"}`)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "oily", body["skinType"])
	score, ok := body["overallScore"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
	assert.NotEmpty(t, body["morningRoutine"])
	assert.NotEmpty(t, body["eveningRoutine"])
	assert.Equal(t, 1, gen.calls)
}

func TestSkinAnalysisUpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"rate limited", analysis.ErrRateLimited, fiber.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."},
		{"quota exhausted", analysis.ErrQuotaExhausted, fiber.StatusPaymentRequired, "AI credits exhausted. Please add credits to continue."},
		{"empty response", analysis.ErrEmptyResponse, fiber.StatusBadGateway, "Empty response from AI model."},
		{"invalid format", analysis.ErrInvalidFormat, fiber.StatusBadGateway, "Invalid AI response format."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newFunctionsApp(&stubGenerator{err: tc.err})
			status, body := postJSON(t, app, "/skinAnalysis", `{"profile":{"skinType":"dry"}}`)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMsg, body["message"])
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestAnalyzePhotoRequiresImage(t *testing.T) {
	gen := &stubGenerator{}
	app := newFunctionsApp(gen)

	status, body := postJSON(t, app, "/analyzePhoto", `{"prompt":"how is my skin"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Missing imageBase64 (string).", body["message"])
	assert.Zero(t, gen.calls)
}

func TestAnalyzePhotoReturnsText(t *testing.T) {
	gen := &stubGenerator{photoText: "Your skin looks hydrated today."}
	app := newFunctionsApp(gen)

	status, body := postJSON(t, app, "/analyzePhoto", `{"imageBase64":"aGVsbG8=","language":"en"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Your skin looks hydrated today.", body["analysisText"])
}
