package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/procurelens/supplier-insights-backend/internal/ai"
	"github.com/procurelens/supplier-insights-backend/internal/model"
)

func clientRequest() *model.InsightRequest {
	return &model.InsightRequest{
		Category: "IT Hardware",
		Suppliers: []model.SupplierRecord{
			{SupplierName: "TechSource Inc.", AnnualSpendUSD: 4_200_000, OnTimeDeliveryPct: 92,
				ContractExpiryMonths: 6, SingleSourceDependency: true, Region: "North America"},
		},
	}
}

// chatCompletion wraps content in the OpenAI chat-completion response shape.
func chatCompletion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}, "finish_reason": "stop"},
		},
	})
	return string(body)
}

func TestGroqClient_HappyPath(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion(`{
			"overall_risk_level": "High",
			"key_risks": ["Single-source dependency on TechSource Inc."],
			"negotiation_levers": ["Consolidated volume"],
			"recommended_actions_next_90_days": ["Develop contingency supplier"],
			"confidence_score": 0.7
		}`)))
	}))
	defer srv.Close()

	client := ai.NewGroqClient("test-key", "llama-3.3-70b-versatile", srv.URL)
	res, err := client.GenerateInsights(context.Background(), clientRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer credential", gotAuth)
	}
	if gotBody["model"] != "llama-3.3-70b-versatile" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.3 {
		t.Errorf("temperature = %v, want 0.3", gotBody["temperature"])
	}
	if gotBody["max_tokens"] != float64(2000) {
		t.Errorf("max_tokens = %v, want 2000", gotBody["max_tokens"])
	}
	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", gotBody["response_format"])
	}

	if res.OverallRiskLevel != model.RiskHigh {
		t.Errorf("level = %q, want High", res.OverallRiskLevel)
	}
	// 0.7 from the model + 0.2 external-path bonus.
	if res.ConfidenceScore != 0.9 {
		t.Errorf("confidence = %v, want 0.9", res.ConfidenceScore)
	}
	if res.Category != "IT Hardware" {
		t.Errorf("category = %q", res.Category)
	}
}

func TestGroqClient_ConfidenceBonusIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatCompletion(`{"confidence_score": 0.9, "key_risks": ["r"]}`)))
	}))
	defer srv.Close()

	client := ai.NewGroqClient("k", "m", srv.URL)
	res, err := client.GenerateInsights(context.Background(), clientRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ConfidenceScore != 0.95 {
		t.Errorf("confidence = %v, want 0.95 cap", res.ConfidenceScore)
	}
}

func TestGroqClient_FencedResponseStillParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatCompletion("```json\n{\"overall_risk_level\": \"Low\"}\n```")))
	}))
	defer srv.Close()

	client := ai.NewGroqClient("k", "m", srv.URL)
	res, err := client.GenerateInsights(context.Background(), clientRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OverallRiskLevel != model.RiskLow {
		t.Errorf("level = %q, want Low", res.OverallRiskLevel)
	}
}

func TestGroqClient_NonSuccessStatusIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	client := ai.NewGroqClient("k", "m", srv.URL)
	_, err := client.GenerateInsights(context.Background(), clientRequest())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var ue *ai.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", ue.Status)
	}
	if ue.Body == "" {
		t.Error("UpstreamError should carry the response body")
	}
}

func TestGroqClient_UnparseableContentIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatCompletion("I am unable to analyze this data.")))
	}))
	defer srv.Close()

	client := ai.NewGroqClient("k", "m", srv.URL)
	_, err := client.GenerateInsights(context.Background(), clientRequest())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var pe *ai.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestGroqClient_NonNumericConfidenceIsNormalizationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatCompletion(`{"confidence_score": "pretty sure"}`)))
	}))
	defer srv.Close()

	client := ai.NewGroqClient("k", "m", srv.URL)
	_, err := client.GenerateInsights(context.Background(), clientRequest())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var ne *ai.NormalizationError
	if !errors.As(err, &ne) {
		t.Errorf("expected *NormalizationError, got %T: %v", err, err)
	}
}
