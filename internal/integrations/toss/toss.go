package toss

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minwoo-kang/localstar-service/internal/apperrors"
	"github.com/minwoo-kang/localstar-service/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	prodBaseURL    = "https://apps-in.toss.im/api-partner/v1/apps-in-toss/user/oauth2"
	sandboxBaseURL = "https://apps-in-sandbox.toss.im/api-partner/v1/apps-in-toss/user/oauth2"
)

// apiError is the provider's error envelope
type apiError struct {
	ErrorCode string `json:"errorCode"`
	Reason    string `json:"reason"`
}

func (e *apiError) message() string {
	if e == nil || e.Reason == "" {
		return "no reason reported"
	}
	return e.Reason
}

type tokenResponse struct {
	Success *struct {
		AccessToken string `json:"accessToken"`
	} `json:"success"`
	Error *apiError `json:"error"`
}

// Profile is the provider's user profile. PII fields are AES-GCM blobs
// that must be decrypted by the caller.
type Profile struct {
	UserKey  json.Number `json:"userKey"`
	Name     string      `json:"name"`
	Birthday string      `json:"birthday"`
	Gender   string      `json:"gender"`
	Phone    string      `json:"phone"`
}

type profileResponse struct {
	Success *Profile  `json:"success"`
	Error   *apiError `json:"error"`
}

type unlinkResponse struct {
	Success *bool     `json:"success"`
	Error   *apiError `json:"error"`
}

// Client handles integration with the Toss identity provider
type Client struct {
	clientID     string
	clientSecret string
	prodURL      string
	sandboxURL   string
	client       *http.Client
	log          *logrus.Logger
}

// NewClient initializes a new Toss client. When an mTLS certificate and
// key are both configured they are loaded into the transport; a broken
// pair falls back to the default transport with a warning instead of
// failing startup.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	c := &Client{
		clientID:     cfg.TossClientID,
		clientSecret: cfg.TossClientSecret,
		prodURL:      prodBaseURL,
		sandboxURL:   sandboxBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}

	if cfg.TossMTLSCert != "" && cfg.TossMTLSKey != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.TossMTLSCert), []byte(cfg.TossMTLSKey))
		if err != nil {
			log.Warnf("Failed to load mTLS key pair, using default transport: %v", err)
		} else {
			c.client.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
			}
		}
	}

	return c
}

func (c *Client) baseURL(sandbox bool) string {
	if sandbox {
		return c.sandboxURL
	}
	return c.prodURL
}

// ExchangeAuthCode exchanges an authorization code for an access token
func (c *Client) ExchangeAuthCode(ctx context.Context, code string, sandbox bool) (string, error) {
	payload := map[string]string{
		"grantType":    "authorization_code",
		"code":         code,
		"clientId":     c.clientID,
		"clientSecret": c.clientSecret,
	}

	var out tokenResponse
	if err := c.post(ctx, c.baseURL(sandbox)+"/generate-token", payload, &out); err != nil {
		return "", err
	}
	if out.Success == nil || out.Success.AccessToken == "" {
		return "", apperrors.Newf(apperrors.KindUpstream, "token exchange failed: %s", out.Error.message())
	}
	return out.Success.AccessToken, nil
}

// FetchProfile retrieves the user profile for an access token
func (c *Client) FetchProfile(ctx context.Context, accessToken string, sandbox bool) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(sandbox)+"/login-me", nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "failed to create profile request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out profileResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Success == nil {
		return nil, apperrors.Newf(apperrors.KindUpstream, "profile fetch failed: %s", out.Error.message())
	}
	return out.Success, nil
}

// Unlink revokes the link for the given user key
func (c *Client) Unlink(ctx context.Context, userKey string, sandbox bool) error {
	payload := map[string]string{"userKey": userKey}

	var out unlinkResponse
	if err := c.post(ctx, c.baseURL(sandbox)+"/remove", payload, &out); err != nil {
		return err
	}
	if out.Success == nil || !*out.Success {
		return apperrors.Newf(apperrors.KindUpstream, "unlink failed: %s", out.Error.message())
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, "identity provider request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, "failed to read provider response", err)
	}

	c.log.Debugf("Toss response %s %s: %d", req.Method, req.URL.Path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := string(body)
		var envelope struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			reason = envelope.Error.message()
		}
		return apperrors.Newf(apperrors.KindUpstream, "identity provider returned %d: %s", resp.StatusCode, reason)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, fmt.Sprintf("failed to parse provider response: %.200s", body), err)
	}
	return nil
}
