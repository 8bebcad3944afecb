package queue

import (
	"context"
	"time"

	"runagent/agent"
)

// Request is one invocation waiting for a worker, typically one spreadsheet row.
type Request struct {
	Row          int
	Message      string
	ServerURL    string
	Model        string
	ResponseChan chan RequestResult
	Context      context.Context
	EnqueuedAt   time.Time
}

// RequestResult represents the outcome of processing a request.
type RequestResult struct {
	Row     int
	Result  agent.Result
	Elapsed time.Duration
}
