package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method      string
	contentType string
	body        string
}

func newAgentServer(t *testing.T, reply func(req Request) (int, string)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, capturedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			body:        string(raw),
		})
		mu.Unlock()

		var req Request
		_ = json.Unmarshal(raw, &req)
		status, body := reply(req)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestInvokeSendsBodyAndUnquotesReply(t *testing.T) {
	srv, seen := newAgentServer(t, func(Request) (int, string) {
		return http.StatusOK, `"hi there"`
	})

	got := Invoke("hello", srv.URL+"/chat", "model-x")

	assert.Equal(t, "hi there", got)
	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json; charset=utf-8", req.contentType)
	assert.Equal(t, `{"message":"hello","model":"model-x"}`, req.body)
}

func TestInvokeUnreachableServerReturnsErrorString(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/chat"
	srv.Close()

	got := Invoke("hello", url, "model-x")

	require.True(t, strings.HasPrefix(got, ErrorPrefix), "Invoke() = %q, want %q prefix", got, ErrorPrefix)
	assert.NotEmpty(t, strings.TrimPrefix(got, ErrorPrefix))
}

func TestInvokeRoundTripsNewlinesAndQuotes(t *testing.T) {
	text := "line1\n\"quoted\""
	srv, seen := newAgentServer(t, func(req Request) (int, string) {
		return http.StatusOK, `"` + req.Message + `"`
	})

	got := Invoke(text, srv.URL, "m")

	assert.Equal(t, text, got)
	require.Len(t, *seen, 1)

	var sent Request
	require.NoError(t, json.Unmarshal([]byte((*seen)[0].body), &sent))
	assert.Equal(t, `line1\n\"quoted\"`, sent.Message)
}

func TestInvokeDoesNotInspectStatusCode(t *testing.T) {
	srv, _ := newAgentServer(t, func(Request) (int, string) {
		return http.StatusInternalServerError, `"Internal Server Error"`
	})

	assert.Equal(t, "Internal Server Error", Invoke("x", srv.URL, ""))
}

func TestInvokePassesMalformedBodyThrough(t *testing.T) {
	srv, _ := newAgentServer(t, func(Request) (int, string) {
		return http.StatusOK, `{"detail":"not a string"}`
	})

	assert.Equal(t, `{"detail":"not a string"}`, Invoke("x", srv.URL, ""))
}

func TestInvokePassesModelThroughUnescaped(t *testing.T) {
	srv, seen := newAgentServer(t, func(req Request) (int, string) {
		return http.StatusOK, `"` + req.Model + `"`
	})

	assert.Equal(t, "gpt-4o", Invoke("x", srv.URL, "gpt-4o"))
	assert.Equal(t, `{"message":"x","model":"gpt-4o"}`, (*seen)[0].body)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDoAppliesDefaults(t *testing.T) {
	var (
		gotURL  string
		gotBody string
	)
	c := &Client{httpClient: &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			gotURL = r.URL.String()
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`"ok"`)),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		}),
	}}

	res := c.Do(context.Background(), "hello", "", "")

	require.False(t, res.Failed(), "Do() err = %v", res.Err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, "http://localhost:8889/chat", gotURL)
	assert.Equal(t, `{"message":"hello","model":"gpt-4-turbo-preview"}`, gotBody)
}

func TestNewClientUsesFixedTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Minute, Timeout)
	assert.Equal(t, Timeout, NewClient().httpClient.Timeout)
}

func TestDoTimeoutBecomesErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := &Client{httpClient: &http.Client{Timeout: 50 * time.Millisecond}}
	res := c.Do(context.Background(), "slow", srv.URL, "m")

	require.True(t, res.Failed())
	assert.True(t, strings.HasPrefix(res.String(), ErrorPrefix))
	assert.Contains(t, res.String(), "Timeout")
}

func TestDoCanceledContextBecomesErrorResult(t *testing.T) {
	srv, _ := newAgentServer(t, func(Request) (int, string) { return http.StatusOK, `"never"` })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewClient().Do(ctx, "x", srv.URL, "m")

	require.True(t, res.Failed())
	assert.True(t, errors.Is(res.Err, context.Canceled), "Do() err = %v, want context.Canceled", res.Err)
}

func TestDoInvalidURLBecomesErrorResult(t *testing.T) {
	res := NewClient().Do(context.Background(), "x", "://missing-scheme", "m")

	require.True(t, res.Failed())
	assert.True(t, strings.HasPrefix(res.String(), ErrorPrefix))
}

func TestDoRecoversFromTransportPanic(t *testing.T) {
	c := &Client{httpClient: &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			panic("transport exploded")
		}),
	}}

	res := c.Do(context.Background(), "x", "http://agent.invalid/chat", "m")

	assert.Equal(t, "Error: transport exploded", res.String())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "reply", Result{Text: "reply"}.String())
	assert.Equal(t, "Error: boom", Result{Text: "ignored", Err: errors.New("boom")}.String())
}

func TestInvokeAsyncConcurrentCallsAreIndependent(t *testing.T) {
	srv, _ := newAgentServer(t, func(req Request) (int, string) {
		return http.StatusOK, `"echo:` + req.Message + `"`
	})

	c := NewClient()
	const n = 16
	chans := make([]<-chan Result, n)
	for i := 0; i < n; i++ {
		chans[i] = c.InvokeAsync(context.Background(), fmt.Sprintf("msg-%d", i), srv.URL, "m")
	}
	for i, ch := range chans {
		select {
		case res := <-ch:
			require.False(t, res.Failed(), "call %d err = %v", i, res.Err)
			assert.Equal(t, fmt.Sprintf("echo:msg-%d", i), res.Text)
		case <-time.After(5 * time.Second):
			t.Fatalf("call %d did not complete", i)
		}
	}
}
