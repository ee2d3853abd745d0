package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drbn-app/drbn-backend/internal/config"
	"github.com/drbn-app/drbn-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{
		AIGatewayURL: srv.URL,
		AIAPIKey:     "test-key",
		AIModel:      "test-model",
		AITimeout:    5 * time.Second,
	}), srv
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	})
	return string(b)
}

func testProfile() *models.Profile {
	skinType := "oily"
	return &models.Profile{SkinType: &skinType, Concerns: []string{"acne"}}
}

func TestGeneratePlanSuccess(t *testing.T) {
	plan := `{"overall_score": 82, "summary": "solid", "derived_features": {"oiliness_score": 60, "detected_concerns": ["shine"]}, "routine": {"morning": [{"step_order": 1, "category": "cleanser", "title": "Cleanse", "instructions": "gently", "products": {"best": {"product_name": "Foam"}}}]}}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(completionBody(plan)))
	})

	got, err := c.GeneratePlan(context.Background(), PlanRequest{Profile: testProfile(), Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 82, got.OverallScore)
	assert.Equal(t, "solid", got.Summary)
	require.NotNil(t, got.DerivedFeatures)
	require.NotNil(t, got.DerivedFeatures.OilinessScore)
	assert.Equal(t, 60, *got.DerivedFeatures.OilinessScore)
	require.Len(t, got.Routine.Morning, 1)
	require.NotNil(t, got.Routine.Morning[0].Products.Best)
	assert.Equal(t, "Foam", got.Routine.Morning[0].Products.Best.ProductName)
	assert.JSONEq(t, plan, string(got.Raw))
}

func TestGeneratePlanFencedOutput(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("```json\n{\"overall_score\": 70, \"summary\": \"fenced\", \"routine\": {}}\n```")))
	})

	got, err := c.GeneratePlan(context.Background(), PlanRequest{Profile: testProfile(), Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 70, got.OverallScore)
}

func TestGeneratePlanUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"quota exhausted", http.StatusPaymentRequired, `{}`, ErrQuotaExhausted},
		{"no choices", http.StatusOK, `{"choices": []}`, ErrEmptyResponse},
		{"prose output", http.StatusOK, completionBody("sorry, cannot do that"), ErrInvalidFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.GeneratePlan(context.Background(), PlanRequest{Profile: testProfile(), Language: "en"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGeneratePlanSingleUpstreamCall(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GeneratePlan(context.Background(), PlanRequest{Profile: testProfile(), Language: "en"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQuickAnalysisEchoesObject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		w.Write([]byte(completionBody(`{"skinType": "oily", "overallScore": 77, "morningRoutine": [{"step": 1, "product": "Cleanser", "instructions": "wash"}], "eveningRoutine": [{"step": 1, "product": "Moisturizer", "instructions": "apply"}]}`)))
	})

	got, err := c.QuickAnalysis(context.Background(), QuickRequest{
		Profile: map[string]interface{}{
			"skinType":       "oily",
			"concerns":       []interface{}{"acne"},
			"ageRange":       "25-35",
			"sunExposure":    "moderate",
			"currentRoutine": "basic",
		},
		Language: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "oily", got["skinType"])
	score, ok := got["overallScore"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, score, float64(0))
	assert.LessOrEqual(t, score, float64(100))
	assert.NotEmpty(t, got["morningRoutine"])
	assert.NotEmpty(t, got["eveningRoutine"])
}

func TestAnalyzePhotoReturnsText(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// single user message carrying text + image parts
		require.Len(t, req.Messages, 1)
		w.Write([]byte(completionBody("Use a gentle cleanser twice daily.")))
	})

	text, err := c.AnalyzePhoto(context.Background(), PhotoRequest{ImageBase64: "aGVsbG8=", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Use a gentle cleanser twice daily.", text)
}
