package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// SubscriptionKeyHeader carries the API credential on every request.
	SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

	defaultTimeout = 30 * time.Second
)

// Client talks to the face API.
type Client struct {
	baseURL      *url.URL
	apiKey       string
	detectParams url.Values
	httpClient   *http.Client
	limiter      *rate.Limiter
	captureDir   string
	log          logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRateLimit throttles outgoing requests to rps per second with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = nil
			return
		}
		cl.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithDetectParams sets query parameters sent with every detect call.
func WithDetectParams(params map[string]string) Option {
	return func(cl *Client) {
		cl.detectParams = url.Values{}
		for k, v := range params {
			cl.detectParams.Set(k, v)
		}
	}
}

// WithCaptureDir saves every successful response body to dir.
func WithCaptureDir(dir string) Option {
	return func(cl *Client) { cl.captureDir = dir }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cl *Client) { cl.log = log }
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. https://westcentralus.api.cognitive.microsoft.com/face/v1.0).
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("face API key is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid face API endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid face API endpoint %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    parsed,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.captureDir != "" {
		if err := os.MkdirAll(c.captureDir, 0750); err != nil {
			return nil, fmt.Errorf("could not create capture directory: %w", err)
		}
	}
	return c, nil
}

// Detect sends raw image bytes to the detect endpoint.
func (c *Client) Detect(ctx context.Context, image []byte) ([]DetectedFace, error) {
	endpoint := c.resolveURL("detect")
	if len(c.detectParams) > 0 {
		endpoint += "?" + c.detectParams.Encode()
	}

	body, err := c.do(ctx, "detect", endpoint, "application/octet-stream", bytes.NewReader(image))
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("could not unmarshal detect response: %w", err)
	}

	faces := make([]DetectedFace, 0, len(items))
	for i, item := range items {
		var face DetectedFace
		if err := json.Unmarshal(item, &face); err != nil {
			return nil, fmt.Errorf("could not unmarshal detected face %d: %w", i, err)
		}
		face.Raw = item
		faces = append(faces, face)
	}
	return faces, nil
}

// Group asks the service to partition faceIDs into same-person groups.
func (c *Client) Group(ctx context.Context, faceIDs []string) (*GroupResult, error) {
	payload, err := json.Marshal(groupRequest{FaceIDs: faceIDs})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request body: %w", err)
	}

	body, err := c.do(ctx, "group", c.resolveURL("group"), "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var result GroupResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal group response: %w", err)
	}
	return &result, nil
}

// resolveURL joins path segments onto the base URL.
func (c *Client) resolveURL(segments ...string) string {
	return c.baseURL.JoinPath(segments...).String()
}

// do performs a POST request and returns the body of a 200 response.
func (c *Client) do(ctx context.Context, name, endpoint, contentType string, body io.Reader) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(SubscriptionKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"call":       name,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("face API call")

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	c.captureResponse(name, respBody)
	return respBody, nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(name string, body []byte) {
	if c.captureDir == "" {
		return
	}

	filename := fmt.Sprintf("%s_%s.json", name, time.Now().Format("20060102_150405.000000"))
	path := filepath.Join(c.captureDir, filename)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		body = pretty.Bytes()
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		c.log.WithError(err).WithField("path", path).Warn("failed to capture response")
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
