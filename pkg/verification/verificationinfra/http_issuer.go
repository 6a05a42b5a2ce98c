package verificationinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/verification"
)

const (
	issuePath      = "api/issue"
	apiKeyHeader   = "X-API-Key"
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 64 << 10
)

// HTTPIssuer posts code requests to <server>/api/issue
type HTTPIssuer struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPIssuer creates an issuer client. A nil httpClient gets one bounded
// by cfg.Timeout.
func NewHTTPIssuer(cfg config.VerificationConfig, httpClient *http.Client) *HTTPIssuer {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPIssuer{
		url:        IssueURL(cfg.ServerURL),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// IssueURL joins the server base URL and the issue path, with or without
// a trailing slash on base.
func IssueURL(base string) string {
	if strings.HasSuffix(base, "/") {
		return base + issuePath
	}
	return base + "/" + issuePath
}

func (c *HTTPIssuer) Issue(ctx context.Context, req verification.IssueCodeRequest) (*verification.Code, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, verification.ErrRegistry.NewWithCause(verification.CodeTransport, err).
			WithDetail("error", "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, verification.ErrRegistry.NewWithCause(verification.CodeTransport, err).
			WithDetail("error", "failed to create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, verification.ErrRegistry.NewWithCause(verification.CodeTransport, err).
			WithDetail("url", c.url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, verification.ErrRegistry.NewWithCause(verification.CodeTransport, err).
			WithDetail("error", "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, verification.ErrRegistry.New(verification.CodeUpstream).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("upstream_error", strings.TrimSpace(string(respBody)))
	}

	var code verification.Code
	if err := json.Unmarshal(respBody, &code); err != nil || len(code.Code) == 0 || string(code.Code) == "null" {
		e := verification.ErrRegistry.New(verification.CodeInvalidResponse)
		if err != nil {
			e.WithCause(err)
		}
		return nil, e
	}
	return &code, nil
}

var _ verification.Issuer = (*HTTPIssuer)(nil)
