package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Options configures the backend client
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	Token            string
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// Client talks to the business REST backend. Calls are never retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new backend client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "backend",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

type outcome struct {
	status int
	body   []byte
}

// Do sends a request and decodes the response into out, which may be nil.
// Only transport failures and 5xx responses count against the breaker.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, method, path, payload)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errors.Wrapf(ErrCircuitOpen, "%s %s", method, path)
	}
	if err != nil {
		return err
	}

	o := res.(outcome)
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", o.status).
		Dur("duration", time.Since(start)).
		Msg("Backend call")

	return decode(method, path, o, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (outcome, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return outcome{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return outcome{}, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome{}, &NetworkError{Method: method, Path: path, Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return outcome{}, &NetworkError{Method: method, Path: path, Status: resp.StatusCode}
	}
	return outcome{status: resp.StatusCode, body: data}, nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func decode(method, path string, o outcome, out interface{}) error {
	env, isEnvelope := parseEnvelope(o.body)

	switch {
	case o.status == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case o.status == http.StatusBadRequest || o.status == http.StatusUnprocessableEntity || o.status == http.StatusConflict:
		if isEnvelope {
			return NewValidationError(env.Message, fieldErrors(env.Errors))
		}
		return NewValidationError("", fieldErrors(o.body))
	case o.status < 200 || o.status >= 300:
		return &NetworkError{Method: method, Path: path, Status: o.status}
	}

	data := o.body
	if isEnvelope {
		if env.Success != nil && !*env.Success {
			return NewValidationError(env.Message, fieldErrors(env.Errors))
		}
		data = env.Data
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Method: method, Path: path, Err: errors.Wrap(err, "failed to decode response")}
	}
	return nil
}

// parseEnvelope recognises the {success, message, data, errors} wrapper.
// Raw records and arrays are returned as they are.
func parseEnvelope(body []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return envelope{}, false
	}
	_, hasSuccess := keys["success"]
	_, hasData := keys["data"]
	_, hasID := keys["id"]
	if !hasSuccess && (!hasData || hasID) {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// fieldErrors accepts {"field": "msg"}, {"field": ["msg", ...]} and a bare list of messages.
func fieldErrors(raw json.RawMessage) map[string]string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err == nil {
		fields := make(map[string]string, len(generic))
		for k, v := range generic {
			switch msg := v.(type) {
			case string:
				fields[k] = msg
			case []interface{}:
				parts := make([]string, 0, len(msg))
				for _, m := range msg {
					parts = append(parts, fmt.Sprint(m))
				}
				fields[k] = strings.Join(parts, ", ")
			}
		}
		if len(fields) == 0 {
			return nil
		}
		return fields
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return map[string]string{"non_field_errors": strings.Join(list, ", ")}
	}
	return nil
}
