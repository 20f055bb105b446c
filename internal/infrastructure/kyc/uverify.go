package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.uverify.com.ng/v1/rest-api/verification"
	defaultTimeout = 20 * time.Second
)

// UverifyConfig carries the networked provider's settings.
type UverifyConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// UverifyVerifier posts document lists to the uVerify verification endpoint.
// Every call is bounded by the client timeout; transport errors come back as a
// structured failure result, never as an error, so the registration path can
// fall back to manual review.
type UverifyVerifier struct {
	cfg    UverifyConfig
	client *http.Client
	log    zerolog.Logger
}

func NewUverifyVerifier(cfg UverifyConfig, log zerolog.Logger) *UverifyVerifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &UverifyVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

type uverifyDocument struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Key  string `json:"key"`
}

type uverifyRequest struct {
	Documents []uverifyDocument `json:"documents"`
}

type uverifyResponse struct {
	Status    string `json:"status"`
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Reference string `json:"reference"`
}

// VerifyDocuments posts the document list and interprets the generic success
// signals: an explicit status field, an explicit success flag, or a bare 2xx.
func (v *UverifyVerifier) VerifyDocuments(ctx context.Context, documents []domain.DocumentRef) (ports.VerificationResult, error) {
	payload := uverifyRequest{Documents: make([]uverifyDocument, 0, len(documents))}
	for _, d := range documents {
		payload.Documents = append(payload.Documents, uverifyDocument{URL: d.URL, Name: d.Name, Key: d.Key})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.VerificationResult{Success: false, Notes: err.Error()}, nil
	}

	url := strings.TrimRight(v.cfg.BaseURL, "/") + "/nin"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ports.VerificationResult{Success: false, Notes: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if v.cfg.APIKey != "" {
		req.Header.Set("x-api-key", v.cfg.APIKey)
	}
	if v.cfg.APISecret != "" {
		req.Header.Set("x-api-secret", v.cfg.APISecret)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn().Err(err).Msg("uverify request failed")
		return ports.VerificationResult{Success: false, Notes: err.Error()}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.VerificationResult{Success: false, Notes: err.Error()}, nil
	}
	if len(raw) == 0 {
		twoxx := resp.StatusCode >= 200 && resp.StatusCode < 300
		return ports.VerificationResult{Success: twoxx, Notes: "empty response"}, nil
	}

	var parsed uverifyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ports.VerificationResult{
			Success: false,
			Notes:   fmt.Sprintf("unparseable response (http %d)", resp.StatusCode),
		}, nil
	}

	success := parsed.Status == "success" ||
		parsed.Success ||
		(resp.StatusCode >= 200 && resp.StatusCode < 300)

	providerID := parsed.RequestID
	if providerID == "" {
		providerID = parsed.Reference
	}

	return ports.VerificationResult{
		Success:    success,
		ProviderID: providerID,
		Notes:      string(raw),
	}, nil
}
