package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/letter5700/backend/internal/pkg/httpx"
	"github.com/letter5700/backend/internal/platform/envutil"
	"github.com/letter5700/backend/internal/platform/logger"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// Client delivers push notifications over the FCM HTTP v1 API. Delivery is
// best-effort: callers are expected to log a returned error and move on.
type Client interface {
	Send(ctx context.Context, token, title, body string) error
}

type Config struct {
	CredentialsFile string
	ProjectID       string
	BaseURL         string
	Timeout         time.Duration
	MaxRetries      int
}

func ConfigFromEnv() Config {
	return Config{
		CredentialsFile: envutil.String("FCM_CREDENTIALS_FILE", ""),
		ProjectID:       envutil.String("FCM_PROJECT_ID", ""),
		BaseURL:         envutil.String("FCM_BASE_URL", "https://fcm.googleapis.com"),
		Timeout:         time.Duration(envutil.Int("FCM_TIMEOUT_SECONDS", 15)) * time.Second,
		MaxRetries:      envutil.Int("FCM_MAX_RETRIES", 2),
	}
}

type client struct {
	log         *logger.Logger
	baseURL     string
	projectID   string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	maxRetries  int
}

// disabledClient is what you get without credentials; every send is a
// logged no-op so local development works without a Firebase project.
type disabledClient struct {
	log *logger.Logger
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	log = log.With("service", "FcmClient")

	if strings.TrimSpace(cfg.CredentialsFile) == "" {
		log.Warn("FCM_CREDENTIALS_FILE not set; push notifications disabled")
		return &disabledClient{log: log}, nil
	}

	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read FCM credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(context.Background(), raw, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("parse FCM credentials: %w", err)
	}

	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("missing FCM_PROJECT_ID and credentials carry no project id")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:         log,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		projectID:   projectID,
		tokenSource: creds.TokenSource,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
	}, nil
}

type message struct {
	Token        string       `json:"token"`
	Notification notification `json:"notification"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type sendRequest struct {
	Message message `json:"message"`
}

type fcmHTTPError struct {
	StatusCode int
	Body       string
}

func (e *fcmHTTPError) Error() string {
	return fmt.Sprintf("fcm http %d: %s", e.StatusCode, e.Body)
}

func (e *fcmHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) Send(ctx context.Context, token, title, body string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}

	req := sendRequest{
		Message: message{
			Token: token,
			Notification: notification{
				Title: title,
				Body:  body,
			},
		},
	}

	path := fmt.Sprintf("/v1/projects/%s/messages:send", c.projectID)
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, err := c.doOnce(ctx, path, req)
		if err == nil {
			c.log.Info("Push notification sent", "fcm_token", token)
			return nil
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("FCM send retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return lastErr
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	tok, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("fcm token source: %w", err)
	}
	tok.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &fcmHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

func (d *disabledClient) Send(ctx context.Context, token, title, body string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	d.log.Debug("Push notification skipped; FCM disabled", "title", title)
	return nil
}
