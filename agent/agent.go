// Package agent invokes a remote AI agent over HTTP and hands back its reply as
// a single displayable string.
//
// Every failure is folded into the returned text as "Error: <description>", so
// a caller such as a spreadsheet cell always has something to show.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"runagent/codec"
)

const (
	// DefaultServerURL is used when the caller leaves the server URL empty.
	DefaultServerURL = "http://localhost:8889/chat"
	// DefaultModel is used when the caller leaves the model empty.
	DefaultModel = "gpt-4-turbo-preview"
	// Timeout bounds one invocation, from dialing to the last byte of the reply.
	Timeout = 600000 * time.Millisecond
	// ErrorPrefix starts every flattened failure.
	ErrorPrefix = "Error: "

	contentType = "application/json; charset=utf-8"
)

// Request is the JSON body posted to the agent.
type Request struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// Result is the outcome of a single invocation: reply text or the failure.
type Result struct {
	Text string
	Err  error
}

// Failed reports whether the invocation did not complete an HTTP exchange.
func (r Result) Failed() bool {
	return r.Err != nil
}

// String flattens the result into what the caller displays.
func (r Result) String() string {
	if r.Err != nil {
		return ErrorPrefix + r.Err.Error()
	}
	return r.Text
}

// Client posts messages to an agent endpoint. It holds no per-call state.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client with its own HTTP client and the fixed timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: Timeout,
		},
	}
}

// Invoke sends message to a fresh Client and returns the reply or an
// "Error: " string. Empty serverURL and model fall back to the defaults.
func Invoke(message, serverURL, model string) string {
	return NewClient().Invoke(context.Background(), message, serverURL, model)
}

// Invoke runs Do and flattens its result.
func (c *Client) Invoke(ctx context.Context, message, serverURL, model string) string {
	return c.Do(ctx, message, serverURL, model).String()
}

// InvokeAsync runs the invocation on its own goroutine. The returned channel
// receives exactly one Result.
func (c *Client) InvokeAsync(ctx context.Context, message, serverURL, model string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- c.Do(ctx, message, serverURL, model)
	}()
	return ch
}

// Do performs one invocation. The HTTP status code is not inspected: any body
// that arrives is decoded and returned as the reply.
func (c *Client) Do(ctx context.Context, message, serverURL, model string) (res Result) {
	serverURL, model = withDefaults(serverURL, model)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res = Result{Err: fmt.Errorf("%v", p)}
		}
		if res.Err != nil {
			log.Debugf("Agent call to %s failed after %s: %v", serverURL, time.Since(start), res.Err)
		}
	}()

	body, err := codec.MarshalJSON(Request{
		Message: codec.Encode(message),
		Model:   model,
	})
	if err != nil {
		return Result{Err: err}
	}

	reply, status, err := c.post(ctx, serverURL, body)
	if err != nil {
		return Result{Err: err}
	}
	log.Debugf("Agent %s answered %d in %s (model %s, %d bytes)", serverURL, status, time.Since(start), model, len(reply))

	return Result{Text: codec.TrimOuterQuotes(codec.Decode(string(reply)))}
}

func (c *Client) post(ctx context.Context, serverURL string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading reply from %s: %w", serverURL, err)
	}
	return data, resp.StatusCode, nil
}

func withDefaults(serverURL, model string) (string, string) {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if model == "" {
		model = DefaultModel
	}
	return serverURL, model
}
