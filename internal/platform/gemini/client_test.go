package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/letter5700/backend/internal/platform/logger"
)

func TestEmbedRequestShapeAndDimension(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("method: want=%s got=%s", http.MethodPost, r.Method)
		}
		if r.URL.Path != "/v1beta/models/text-embedding-004:embedContent" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Fatalf("api key header: got=%q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"embedding": map[string]any{"values": makeValues(EmbeddingDim)},
		}), nil
	})

	vec, err := c.Embed(context.Background(), "오늘은 불안했다")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != EmbeddingDim {
		t.Fatalf("vector length: want=%d got=%d", EmbeddingDim, len(vec))
	}

	content, ok := captured["content"].(map[string]any)
	if !ok {
		t.Fatalf("content type: got=%T", captured["content"])
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) != 1 {
		t.Fatalf("parts: got=%v", content["parts"])
	}
	if captured["outputDimensionality"] != float64(EmbeddingDim) {
		t.Fatalf("outputDimensionality: want=%d got=%v", EmbeddingDim, captured["outputDimensionality"])
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, map[string]any{
			"embedding": map[string]any{"values": makeValues(5)},
		}), nil
	})

	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected network call for empty input")
		return nil, nil
	})

	if _, err := c.Embed(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestGenerateTextExtractsFirstCandidate(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": "친애하는 "},
							{"text": "당신에게"},
						},
					},
					"finishReason": "STOP",
				},
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": "ignored second candidate"}},
					},
				},
			},
		}), nil
	})

	text, err := c.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "친애하는 당신에게" {
		t.Fatalf("text: want=%q got=%q", "친애하는 당신에게", text)
	}
}

func TestGenerateTextFailsOnEmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, map[string]any{"candidates": []any{}}), nil
	})

	if _, err := c.GenerateText(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}

func TestRetryOnRetryableStatusThenSuccess(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return jsonResponse(t, http.StatusTooManyRequests, map[string]any{"error": "rate limited"}), nil
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		}), nil
	})

	text, err := c.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "ok" {
		t.Fatalf("text: want=%q got=%q", "ok", text)
	}
	if attempts != 2 {
		t.Fatalf("attempts: want=2 got=%d", attempts)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(t, http.StatusBadRequest, map[string]any{"error": "bad prompt"}), nil
	})

	if _, err := c.GenerateText(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for http 400")
	}
	if attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", attempts)
	}
}

func newTestClient(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *client {
	t.Helper()
	return &client{
		log:        newTestLogger(t),
		baseURL:    "http://gemini.local",
		apiKey:     "test-key",
		model:      "gemini-2.5-flash",
		embedModel: "text-embedding-004",
		httpClient: &http.Client{Transport: roundTripFunc(roundTrip)},
		maxRetries: 2,
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func makeValues(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) * 0.01
	}
	return vals
}

func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
