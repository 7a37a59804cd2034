// Package execution submits source code to the remote execution service.
package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultEndpoint is the execution service the talk was given with
const DefaultEndpoint = "https://sti-talk-api-production.up.railway.app/execute"

// DefaultTimeout bounds one execution request
const DefaultTimeout = 30 * time.Second

// ErrEmptySource is returned when there is no code to run
var ErrEmptySource = errors.New("nothing to run")

// request is the JSON body posted to the execution service
type request struct {
	Code string `json:"code"`
}

// Client posts code to an execution endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates an execution client. A non-positive timeout uses DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger,
	}
}

// Endpoint returns the URL code is posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Execute submits code with a single POST and returns the display output.
// The response status is not inspected; whatever text comes back is
// normalized and shown. Only transport failures are errors.
func (c *Client) Execute(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptySource
	}

	body, err := json.Marshal(request{Code: code})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("execution request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return "", fmt.Errorf("failed to execute: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read execution response: %w", err)
	}

	c.log.Debug("execution finished",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return Normalize(string(text)), nil
}

// outputFields are joined in this order to form the display output
var outputFields = []string{"stdout", "stderr", "output", "error"}

// Normalize turns a response body into display text. A JSON object has its
// non-empty stdout, stderr, output and error fields joined by newlines.
// Anything else, or an object with none of those fields set, is shown as is.
func Normalize(text string) string {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return text
	}

	var parts []string
	for _, name := range outputFields {
		if s, ok := displayValue(fields[name]); ok {
			parts = append(parts, s)
		}
	}

	if combined := strings.Join(parts, "\n"); combined != "" {
		return combined
	}
	return text
}

// displayValue renders a field the way it would print, skipping empty,
// zero, false and null values
func displayValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		return "true", val
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
}
