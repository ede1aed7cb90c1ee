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

const DefaultGraphAPIBase = "https://graph.facebook.com/v22.0"

// WhatsAppAPIError wraps Cloud API failures.
type WhatsAppAPIError struct {
	Status int
	Body   string
	Err    error
}

func (e *WhatsAppAPIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("whatsapp api request failed: %v", e.Err)
	}
	return fmt.Sprintf("whatsapp api status %d: %s", e.Status, e.Body)
}

func (e *WhatsAppAPIError) Unwrap() error { return e.Err }

// TemplateConfig names the pre-approved template used for first contact.
type TemplateConfig struct {
	Name     string
	Language string
}

// WhatsAppCloudClient sends messages through the WhatsApp Business Cloud API.
type WhatsAppCloudClient struct {
	accessToken   string
	phoneNumberID string
	apiBase       string
	httpClient    *http.Client
	logger        *slog.Logger

	// Template resolves the first-contact template per send so runtime
	// config changes take effect without a restart.
	Template func() TemplateConfig
}

func NewWhatsAppCloudClient(accessToken, phoneNumberID, apiBase string, logger *slog.Logger) *WhatsAppCloudClient {
	if apiBase == "" {
		apiBase = DefaultGraphAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhatsAppCloudClient{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		apiBase:       apiBase,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger.With("component", "whatsapp_cloud"),
		Template: func() TemplateConfig {
			return TemplateConfig{Name: "hello_world", Language: "en_US"}
		},
	}
}

// SendText sends a free-form text message (24h session window required).
func (w *WhatsAppCloudClient) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	w.logger.Info("send text", "to", to)
	return w.post(ctx, payload)
}

// SendTemplate sends the configured pre-approved template, parameter-free.
func (w *WhatsAppCloudClient) SendTemplate(ctx context.Context, to string) error {
	tmpl := w.Template()
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     tmpl.Name,
			"language": map[string]string{"code": tmpl.Language},
		},
	}
	w.logger.Info("send template", "to", to, "template", tmpl.Name)
	return w.post(ctx, payload)
}

func (w *WhatsAppCloudClient) post(ctx context.Context, payload map[string]any) error {
	if w.accessToken == "" || w.phoneNumberID == "" {
		return &WhatsAppAPIError{Err: fmt.Errorf("ACCESS_TOKEN and PHONE_NUMBER_ID must be set")}
	}

	url := fmt.Sprintf("%s/%s/messages", w.apiBase, w.phoneNumberID)
	data, err := json.Marshal(payload)
	if err != nil {
		return &WhatsAppAPIError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return &WhatsAppAPIError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	// Token never appears in logs.
	w.logger.Debug("request", "method", http.MethodPost, "url", url)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("request failed", "error", err)
		return &WhatsAppAPIError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	w.logger.Debug("response", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Error("api error", "status", resp.StatusCode, "body", string(respBody))
		return &WhatsAppAPIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
