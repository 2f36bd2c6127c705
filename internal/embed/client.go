// Package embed provides a client for the image embedding service that
// backs the visual authenticity check.
package embed

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/util"
)

// Client computes a fixed-dimension embedding for a document image
type Client interface {
	EmbedImage(ctx context.Context, mime string, data []byte) ([]float32, error)
}

// HTTPClient talks to an OpenAI-compatible embeddings endpoint that
// accepts image data URLs as input.
type HTTPClient struct {
	cfg    model.EmbeddingConfig
	client *http.Client
}

// New creates a new embedding client
func New(cfg model.EmbeddingConfig, proxy model.ProxyConfig) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		client: util.NewHTTPClient(cfg.Timeout, proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy),
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedImage posts the image to the embeddings endpoint and returns its
// vector. A malformed response (no data, wrong dimension) is an error,
// never a silently empty vector.
func (c *HTTPClient) EmbedImage(ctx context.Context, mime string, data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	if mime == "" {
		mime = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      []string{dataURL},
		Dimensions: c.cfg.Dimensions,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding API returned no vector")
	}
	vec := embResp.Data[0].Embedding
	if c.cfg.Dimensions > 0 && len(vec) != c.cfg.Dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), c.cfg.Dimensions)
	}
	return vec, nil
}
