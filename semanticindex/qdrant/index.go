package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/recall/semanticindex"
	getsafe "github.com/w-h-a/recall/util/get_safe"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type qdrantIndex struct {
	options semanticindex.Options
	client  *http.Client
}

func (s *qdrantIndex) Upsert(ctx context.Context, records []semanticindex.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	points := make([]map[string]any, 0, len(records))

	for _, rec := range records {
		vector, err := s.options.Embedder.Embed(ctx, rec.Content)
		if err != nil {
			return 0, err
		}

		id := rec.Id
		if len(id) == 0 {
			id = uuid.New().String()
		}

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		payload := map[string]any{
			"session_id":  rec.SessionId,
			"message_ids": rec.MessageIds,
			"content":     rec.Content,
			"metadata":    rec.Metadata,
			"created_at":  createdAt.Format(time.RFC3339Nano),
		}

		points = append(points, map[string]any{
			"id":      id,
			"vector":  vector,
			"payload": payload,
		})
	}

	req := map[string]any{
		"points": points,
	}

	var rsp qdrantEnvelope[json.RawMessage]

	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return 0, err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return 0, errors.New(rsp.Status.Error)
	}

	return len(points), nil
}

func (s *qdrantIndex) Query(ctx context.Context, text string, k int, opts ...semanticindex.QueryOption) ([]semanticindex.Result, error) {
	if k < 1 {
		return nil, nil
	}

	options := semanticindex.NewQueryOptions(opts...)

	vector, err := s.options.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_vector":  false,
		"with_payload": true,
	}

	if len(options.SessionFilter) > 0 {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   "session_id",
					"match": map[string]any{"value": options.SessionFilter},
				},
			},
		}
	}

	var rsp qdrantEnvelope[[]qdrantPointResult]

	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	results := make([]semanticindex.Result, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		payload := point.Payload

		createdAt, _ := time.Parse(time.RFC3339Nano, getsafe.String(payload, "created_at"))

		rec := semanticindex.Record{
			Id:         point.Id,
			SessionId:  getsafe.String(payload, "session_id"),
			MessageIds: getsafe.Strings(payload, "message_ids"),
			Content:    getsafe.String(payload, "content"),
			Metadata:   getsafe.Metadata(payload, "metadata"),
			CreatedAt:  createdAt,
		}

		results = append(results, semanticindex.Result{
			Record: rec,
			Score:  float32(point.Score),
		})
	}

	return results, nil
}

func (s *qdrantIndex) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
		request.Header.Set("Authorization", "Bearer "+s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", semanticindex.ErrUnavailable, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 500 {
		return fmt.Errorf("%w: qdrant http %d: %s", semanticindex.ErrUnavailable, response.StatusCode, string(payload))
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func (s *qdrantIndex) configure() error {
	exists, err := s.collectionExists()
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.createCollection()
}

func (s *qdrantIndex) collectionExists() (bool, error) {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp qdrantEnvelope[json.RawMessage]

	err := s.do(context.Background(), http.MethodGet, path, nil, &rsp)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}

	return strings.EqualFold(rsp.Status.State, "ok"), nil
}

func (s *qdrantIndex) createCollection() error {
	distance := s.options.Distance
	if len(distance) == 0 {
		distance = "Cosine"
	}
	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.options.VectorSize,
			"distance": distance,
		},
	}

	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(context.Background(), http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func NewIndex(opts ...semanticindex.Option) semanticindex.Index {
	options := semanticindex.NewOptions(opts...)

	if len(options.Location) == 0 ||
		len(options.Collection) == 0 ||
		options.VectorSize == 0 {
		panic("missing location, collection, or vector size for qdrant index")
	}

	if options.Embedder == nil {
		panic("missing embedder for qdrant index")
	}

	client := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	s := &qdrantIndex{
		options: options,
		client:  client,
	}

	if err := s.configure(); err != nil {
		panic(err)
	}

	return s
}
