package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dsavitskiy/inferform/pkg/domain"
)

type client struct {
	baseURL string
	hc      *http.Client
}

// NewClient returns a client for the inference service rooted at baseURL.
// No timeout is set on the underlying transport; a call resolves or fails
// according to the transport's own behavior.
func NewClient(baseURL string) (*client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
	}, nil
}

// Generate submits the form state to the endpoint selected by its mode and
// chained flag and returns the display text extracted from the reply.
func (c *client) Generate(ctx context.Context, state *domain.FormState) (string, error) {
	url := c.baseURL + endpointPath(state.Mode, state.Chained)

	var req *http.Request
	var err error
	if state.Mode == domain.ModeImage {
		req, err = c.buildImageRequest(ctx, url, state)
	} else {
		req, err = c.buildTextRequest(ctx, url, state)
	}
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Calling inference service", "url", url)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.PredictError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return extractDisplayText(body)
}

func endpointPath(mode domain.Mode, chained bool) string {
	switch {
	case mode == domain.ModeImage && chained:
		return "/predict/chained_image"
	case mode == domain.ModeImage:
		return "/predict/image"
	case chained:
		return "/predict/chained_text"
	default:
		return "/predict/text"
	}
}

type textRequest struct {
	Prompt string `json:"prompt"`
	System string `json:"system"`
}

func (c *client) buildTextRequest(ctx context.Context, url string, state *domain.FormState) (*http.Request, error) {
	body, err := json.Marshal(textRequest{Prompt: state.Prompt, System: state.System})
	if err != nil {
		return nil, fmt.Errorf("marshaling text request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func (c *client) buildImageRequest(ctx context.Context, url string, state *domain.FormState) (*http.Request, error) {
	if state.Image == nil || len(state.Image.Data) == 0 {
		return nil, domain.ErrImageRequired
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("prompt", state.Prompt); err != nil {
		return nil, fmt.Errorf("writing prompt field: %w", err)
	}

	part, err := w.CreateFormFile("image", state.Image.Filename)
	if err != nil {
		return nil, fmt.Errorf("creating image part: %w", err)
	}
	if _, err := part.Write(state.Image.Data); err != nil {
		return nil, fmt.Errorf("writing image data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	// The writer supplies the content type so the boundary is included.
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req, nil
}

// extractDisplayText picks the string to render: the final_response field,
// else the response field, else the pretty-printed payload.
func extractDisplayText(body []byte) (string, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decoding response data: %w", err)
	}

	if obj, ok := payload.(map[string]any); ok {
		if s, ok := obj["final_response"].(string); ok {
			return strings.TrimSpace(s), nil
		}
		if s, ok := obj["response"].(string); ok {
			return strings.TrimSpace(s), nil
		}
	}

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting response payload: %w", err)
	}
	return string(pretty), nil
}
