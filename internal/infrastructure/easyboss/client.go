package easyboss

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

const loginPath = "/api/auth/account/login"

// Client is the low-level HTTP client for the EasyBoss platform API.
// It knows the wire format (form-encoded requests, cookie sessions,
// result/code/reason envelopes) but not the pipeline flow.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a platform client with the given configuration.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: logger.Named("easyboss"),
	}, nil
}

// apiEnvelope is the common response wrapper of the platform API.
// Data is kept raw because its shape varies per endpoint.
type apiEnvelope struct {
	Result  string          `json:"result"`
	Code    int             `json:"code"`
	Reason  string          `json:"reason"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *apiEnvelope) IsSuccess() bool {
	return e.Result == "success"
}

// failureDetail prefers reason over message for error text.
func (e *apiEnvelope) failureDetail() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Result
}

// sessionExpired reports whether the envelope is the platform's way of
// rejecting a stale session: result "fail" with code 50001 or a reason
// mentioning the login having lapsed.
func (e *apiEnvelope) sessionExpired() bool {
	if e.Result != "fail" {
		return false
	}
	return e.Code == 50001 || strings.Contains(e.Reason, "登录失效")
}

type loginData struct {
	NeedSmsVerify bool `json:"needSmsVerify"`
}

// Login authenticates with the stored account credentials and returns the
// joined session cookie string. Both the mobile and the password travel
// encrypted with the platform's fixed-key cipher.
func (c *Client) Login(ctx context.Context) (string, error) {
	mobile, err := EncryptCredential(c.config.Mobile)
	if err != nil {
		return "", costsync.NewAuthenticationError("encrypt mobile", err)
	}
	password, err := EncryptCredential(c.config.Password)
	if err != nil {
		return "", costsync.NewAuthenticationError("encrypt password", err)
	}

	form := url.Values{}
	form.Set("mobile", mobile)
	form.Set("password", password)
	form.Set("loginValidateCode", "")
	form.Set("isForwarderLogin", "1")
	form.Set("isVerifyRemoteLogin", "1")
	form.Set("from", "erp")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", costsync.NewAuthenticationError("create login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", costsync.NewAuthenticationError("login request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", costsync.NewAuthenticationError("read login response", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", costsync.NewAuthenticationError("parse login response", err)
	}
	if !envelope.IsSuccess() {
		return "", costsync.NewAuthenticationError(fmt.Sprintf("login rejected: %s", envelope.failureDetail()), nil)
	}

	if len(envelope.Data) > 0 {
		var data loginData
		if err := json.Unmarshal(envelope.Data, &data); err == nil && data.NeedSmsVerify {
			return "", costsync.NewAuthenticationError("login requires SMS verification", nil)
		}
	}

	token := joinSetCookies(resp.Header.Values("Set-Cookie"))
	if token == "" {
		return "", costsync.NewAuthenticationError("login response carried no session cookie", nil)
	}

	c.logger.Info("platform login succeeded", zap.String("mobile", maskMobile(c.config.Mobile)))
	return token, nil
}

// joinSetCookies collapses Set-Cookie headers into a single Cookie header
// value, keeping only the name=value pair of each cookie.
func joinSetCookies(headers []string) string {
	pairs := make([]string, 0, len(headers))
	for _, h := range headers {
		pair := strings.TrimSpace(strings.SplitN(h, ";", 2)[0])
		if pair != "" {
			pairs = append(pairs, pair)
		}
	}
	return strings.Join(pairs, "; ")
}

func maskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}

// postForm sends an authenticated form-encoded POST and decodes the
// response envelope. A session rejection surfaces as SessionExpiredError.
func (c *Client) postForm(ctx context.Context, token, path string, form url.Values) (*apiEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("easyboss: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, token)
}

// getJSON sends an authenticated GET and decodes the response envelope.
func (c *Client) getJSON(ctx context.Context, token, path string, query url.Values) (*apiEnvelope, error) {
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("easyboss: create request: %w", err)
	}
	return c.send(req, token)
}

func (c *Client) send(req *http.Request, token string) (*apiEnvelope, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("easyboss: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("easyboss: read response: %w", err)
	}

	c.logger.Debug("platform request",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("easyboss: unexpected status %d for %s", resp.StatusCode, req.URL.Path)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("easyboss: parse response: %w", err)
	}
	if envelope.sessionExpired() {
		return nil, costsync.NewSessionExpiredError(envelope.failureDetail())
	}
	return &envelope, nil
}
