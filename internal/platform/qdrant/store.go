package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/letter5700/backend/internal/platform/logger"
)

const (
	// VectorName is the named dense-vector field every point carries.
	VectorName = "text"
	// VectorSize matches the embedding model's output dimensionality.
	VectorSize = 768

	maxErrorBodyBytes = 1024
)

// Store owns the advice_knowledge collection: creation, point upserts and
// nearest-neighbor search by cosine similarity.
type Store interface {
	// EnsureCollection creates the collection if absent. Idempotent and
	// safe to call concurrently at startup.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or replaces the point at id. Payload values must be
	// scalars (nil, string, bool, integer, float); anything else fails
	// with OperationErrorUnsupportedPayload before any network call.
	Upsert(ctx context.Context, id uuid.UUID, vector []float32, payload map[string]any) error

	// Search returns up to limit nearest points with their payloads,
	// ordered by descending similarity score.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
}

type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

type store struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type searchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewStore(log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &store{
		log:     log.With("service", "QdrantStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (s *store) EnsureCollection(ctx context.Context) error {
	const op = "ensure_collection"

	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, nil)
	if err == nil {
		s.log.Info("Collection already exists", "collection", s.cfg.Collection)
		return nil
	}
	var operr *OperationError
	if !errors.As(err, &operr) || operr.StatusCode != http.StatusNotFound {
		return err
	}

	req := map[string]any{
		"vectors": map[string]any{
			VectorName: map[string]any{
				"size":     VectorSize,
				"distance": "Cosine",
			},
		},
	}
	createErr := s.doJSON(ctx, op, http.MethodPut, s.collectionPath(""), req, nil)
	if createErr == nil {
		s.log.Info("Collection created", "collection", s.cfg.Collection)
		return nil
	}

	// Another instance may have created it between our existence check and
	// the create call; treat that as success.
	if errors.As(createErr, &operr) &&
		(operr.StatusCode == http.StatusConflict ||
			strings.Contains(strings.ToLower(operr.Message), "already exists")) {
		s.log.Info("Collection created concurrently elsewhere", "collection", s.cfg.Collection)
		return nil
	}
	return createErr
}

func (s *store) Upsert(ctx context.Context, id uuid.UUID, vector []float32, payload map[string]any) error {
	const op = "upsert"

	if len(vector) != VectorSize {
		return opErr(
			op,
			OperationErrorValidation,
			fmt.Sprintf("vector dimension mismatch: expected=%d got=%d", VectorSize, len(vector)),
			nil,
		)
	}
	if err := validatePayload(op, payload); err != nil {
		return err
	}

	req := map[string]any{
		"points": []map[string]any{
			{
				"id": id.String(),
				"vector": map[string]any{
					VectorName: vector,
				},
				"payload": payload,
			},
		},
	}
	if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), req, nil); err != nil {
		return err
	}
	s.log.Debug("Point upserted", "point_id", id.String())
	return nil
}

func (s *store) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	const op = "search"

	if len(vector) != VectorSize {
		return nil, opErr(
			op,
			OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", VectorSize, len(vector)),
			nil,
		)
	}
	if limit <= 0 {
		limit = 3
	}

	req := map[string]any{
		"vector": map[string]any{
			"name":   VectorName,
			"vector": vector,
		},
		"limit":        limit,
		"with_payload": true,
	}
	var rawResults []searchResultItem
	if err := s.doJSON(
		ctx,
		op,
		http.MethodPost,
		s.collectionPath("/points/search"),
		req,
		&rawResults,
	); err != nil {
		return nil, err
	}

	out := make([]ScoredPoint, 0, len(rawResults))
	for _, item := range rawResults {
		out = append(out, ScoredPoint{
			ID:      decodePointID(item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return out, nil
}

// validatePayload enforces the scalar-only payload contract up front so a
// bad value never reaches the wire.
func validatePayload(op string, payload map[string]any) error {
	for key, val := range payload {
		switch val.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return opErr(
				op,
				OperationErrorUnsupportedPayload,
				fmt.Sprintf("unsupported payload type for key %q: %T", key, val),
				nil,
			)
		}
	}
	return nil
}

func (s *store) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func (s *store) collectionPath(suffix string) string {
	path := "/collections/" + s.cfg.Collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}
