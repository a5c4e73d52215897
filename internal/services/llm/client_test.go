package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"content": content,
				},
			},
		},
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(chatResponse(`{"ok":true}`)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestClientExtractFees(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("Authorization = %q", got)
		}
		content := `{"administrative_rent": 650, "utilities_estimate": 300, "parking_fee": null, "deposit": 3500, "one_time_fees": null, "confidence": 0.9, "notes": "explicit amounts"}`
		if err := json.NewEncoder(w).Encode(chatResponse(content)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	report, err := client.ExtractFees(context.Background(), "Czynsz administracyjny 650 zł, media ok. 300 zł, kaucja 3500 zł.")
	if err != nil {
		t.Fatalf("ExtractFees returned error: %v", err)
	}
	if report.AdministrativeRent == nil || *report.AdministrativeRent != 650 {
		t.Errorf("AdministrativeRent = %v", report.AdministrativeRent)
	}
	if report.UtilitiesEstimate == nil || *report.UtilitiesEstimate != 300 {
		t.Errorf("UtilitiesEstimate = %v", report.UtilitiesEstimate)
	}
	if report.ParkingFee != nil {
		t.Errorf("ParkingFee = %v, want nil", report.ParkingFee)
	}
	if report.Deposit == nil || *report.Deposit != 3500 {
		t.Errorf("Deposit = %v", report.Deposit)
	}
	if report.Confidence != 0.9 {
		t.Errorf("Confidence = %v", report.Confidence)
	}
}

func TestClientExtractFeesCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n{\"deposit\": 2000, \"confidence\": 1.4}\n```"
		if err := json.NewEncoder(w).Encode(chatResponse(content)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	report, err := client.ExtractFees(context.Background(), "Kaucja 2000 zł.")
	if err != nil {
		t.Fatalf("ExtractFees returned error: %v", err)
	}
	if report.Deposit == nil || *report.Deposit != 2000 {
		t.Errorf("Deposit = %v", report.Deposit)
	}
	if report.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", report.Confidence)
	}
}

func TestClientRetriesOnTooManyRequests(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if err := json.NewEncoder(w).Encode(chatResponse(`{"confidence": 0.5}`)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.ExtractFees(context.Background(), "opis"); err != nil {
		t.Fatalf("ExtractFees returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Errorf("slept = %v, want [1s]", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if _, err := client.ExtractFees(context.Background(), "opis"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDecodeJSONWrappedInProse(t *testing.T) {
	var parsed struct {
		Deposit float64 `json:"deposit"`
	}
	content := "Here is the breakdown you asked for: {\"deposit\": 1500} Hope it helps!"
	if err := DecodeJSON(content, &parsed); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if parsed.Deposit != 1500 {
		t.Errorf("Deposit = %v", parsed.Deposit)
	}
}

func TestExtractFeesRequiresDescription(t *testing.T) {
	client := NewClient(Config{APIKey: "test", Model: "demo"})
	if _, err := client.ExtractFees(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty description")
	}
}
