package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultGeminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiClient generates reply text via the Google Generative Language API.
type GeminiClient struct {
	apiKey     string
	model      string
	apiBase    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGeminiClient(apiKey, model, apiBase string, logger *slog.Logger) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if apiBase == "" {
		apiBase = DefaultGeminiAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With("component", "gemini"),
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateResponse sends the prompt and returns the first candidate's text.
func (g *GeminiClient) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is not configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.apiBase, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	g.logger.Debug("generate start", "model", g.model)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gemini response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Error("generate failed", "status", resp.StatusCode)
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini response decode failed: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	g.logger.Debug("generate done", "chars", len(text))
	return text, nil
}
