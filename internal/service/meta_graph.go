package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"go.uber.org/ratelimit"
	"golang.org/x/oauth2"
)

// NewMetaTokenSource wraps the long-lived page token. A configured expiry
// makes an outdated token fail locally instead of at the provider.
func NewMetaTokenSource(meta config.Meta) oauth2.TokenSource {
	tok := &oauth2.Token{AccessToken: meta.PageAccessToken, TokenType: "Bearer"}
	if !meta.TokenExpiresAt.IsZero() {
		tok.Expiry = meta.TokenExpiresAt
	}
	return oauth2.StaticTokenSource(tok)
}

type graphClient struct {
	platform   models.Platform
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	tokens     oauth2.TokenSource
}

func newGraphClient(platform models.Platform, baseURL string, tokens oauth2.TokenSource, deps AdapterDeps) *graphClient {
	return &graphClient{
		platform:   platform,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: deps.HTTPClient,
		limiter:    deps.Limiter,
		tokens:     tokens,
	}
}

func (g *graphClient) accessToken() (string, error) {
	tok, err := g.tokens.Token()
	if err != nil {
		return "", missingCredentials(g.platform, fmt.Sprintf("meta token unavailable: %v", err))
	}
	if tok.AccessToken == "" {
		return "", missingCredentials(g.platform, "Missing META_PAGE_ACCESS_TOKEN")
	}
	if !tok.Valid() {
		return "", missingCredentials(g.platform, "META_PAGE_ACCESS_TOKEN has expired")
	}
	return tok.AccessToken, nil
}

func (g *graphClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req, out)
}

func (g *graphClient) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *graphClient) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return g.do(req, out)
}

func (g *graphClient) do(req *http.Request, out any) error {
	g.limiter.Take()

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%s request failed: %w", g.platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var envelope struct {
		Error *transfer.GraphError `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)

	if resp.StatusCode >= http.StatusBadRequest || envelope.Error != nil {
		apiErr := classifyGraphError(g.platform, resp.StatusCode, envelope.Error)
		apiErr.RetryAfter = parseRetryAfter(resp.Header)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", g.platform, err)
	}
	return nil
}

// classifyGraphError maps Graph error codes onto HTTP-like status codes.
func classifyGraphError(platform models.Platform, httpStatus int, gerr *transfer.GraphError) *APIError {
	status := httpStatus
	if status < http.StatusBadRequest {
		status = http.StatusBadRequest
	}
	message := fmt.Sprintf("%s API error %d", platform, httpStatus)

	if gerr != nil {
		if gerr.Message != "" {
			message = gerr.Message
		}
		switch gerr.Code {
		case 190:
			status = http.StatusUnauthorized
		case 10, 200:
			status = http.StatusForbidden
		case 4, 17, 32, 613:
			status = http.StatusTooManyRequests
		}
	}
	return newAPIError(platform, status, message)
}
