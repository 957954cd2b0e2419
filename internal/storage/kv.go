package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"santa/internal/models"
)

// DefaultKeyPrefix namespaces event keys in a shared key-value database.
const DefaultKeyPrefix = "sso_"

// KVStore talks to a Redis-compatible REST endpoint (Vercel KV, Upstash).
type KVStore struct {
	baseURL string
	token   string
	prefix  string
	client  *http.Client
}

type kvResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// NewKVStore returns a store for the REST endpoint at baseURL.
func NewKVStore(baseURL, token, prefix string, timeout time.Duration) *KVStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &KVStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		prefix:  prefix,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *KVStore) Kind() string { return "redis" }

func (s *KVStore) Save(ctx context.Context, id string, bundle *models.EventBundle) error {
	body, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("kv save %s: marshal: %w", id, err)
	}

	resp, err := s.do(ctx, http.MethodPost, "/set/"+s.prefix+id, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("kv save %s: %w", id, err)
	}

	var result string
	if err := json.Unmarshal(resp.Result, &result); err != nil || result != "OK" {
		return fmt.Errorf("kv save %s: unexpected result %s", id, string(resp.Result))
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, id string) (*models.EventBundle, error) {
	resp, err := s.do(ctx, http.MethodGet, "/get/"+s.prefix+id, nil)
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", id, err)
	}

	raw := bytes.TrimSpace(resp.Result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrNotFound
	}

	// GET usually returns the stored value as a JSON string, some SDKs hand
	// back the decoded object instead.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		raw = []byte(inner)
	}

	var bundle models.EventBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &bundle, nil
}

func (s *KVStore) do(ctx context.Context, method, path string, body io.Reader) (*kvResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out kvResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 8<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, out.Error)
	}
	return &out, nil
}
