package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"runagent/cache"
	"runagent/codec"
	"runagent/manager"
)

// Agent produces the reply to a chat message.
type Agent interface {
	Complete(ctx context.Context, model, message string) (string, error)
}

// ChatHandler serves POST /chat: it answers from the cache when it can and
// otherwise waits for a model slot and asks the upstream agent.
type ChatHandler struct {
	ConcurrencyManager *manager.ConcurrencyManager
	Agent              Agent
	Cache              cache.Store
	DefaultModel       string
	Timeout            time.Duration
}

// NewChatHandler creates a ChatHandler. A nil store disables caching.
func NewChatHandler(cm *manager.ConcurrencyManager, agent Agent, store cache.Store, defaultModel string, timeout time.Duration) *ChatHandler {
	if store == nil {
		store = cache.Noop{}
	}
	return &ChatHandler{
		ConcurrencyManager: cm,
		Agent:              agent,
		Cache:              store,
		DefaultModel:       defaultModel,
		Timeout:            timeout,
	}
}

// Chat handles one chat request. The reply is written as a JSON string.
func (h *ChatHandler) Chat(c *gin.Context) {
	var payload ChatRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		logAndReturnError(c, "Bad Request: invalid JSON", http.StatusBadRequest, fmt.Sprintf("Bad Request: invalid JSON: %v", err))
		return
	}
	if payload.Message == nil {
		logAndReturnError(c, "Unprocessable Entity: message is required", http.StatusUnprocessableEntity)
		return
	}

	model := payload.Model
	if model == "" {
		model = h.DefaultModel
	}
	// Clients send the message already escaped for a JSON string literal.
	message := codec.Decode(*payload.Message)
	c.Set(modelKey, model)
	slot := h.ConcurrencyManager.SlotName(model)

	if message == "" {
		chatRequests.WithLabelValues(slot, "empty").Inc()
		writeReply(c, "")
		return
	}

	ctx := c.Request.Context()
	if reply, ok := h.Cache.Get(ctx, model, message); ok {
		log.WithField("request_id", c.GetString(requestIDKey)).Debugf("Cache hit for model %s", model)
		chatRequests.WithLabelValues(slot, "cache_hit").Inc()
		writeReply(c, reply)
		return
	}

	// Attempt to acquire concurrency slot
	release, ok := h.ConcurrencyManager.Acquire(ctx, model)
	if !ok {
		if ctx.Err() != nil {
			chatRequests.WithLabelValues(slot, "canceled").Inc()
			logAndReturnError(c, "Client canceled the request", http.StatusBadRequest)
			return
		}
		chatRequests.WithLabelValues(slot, "busy").Inc()
		logAndReturnError(c, "Service Unavailable: too many requests in queue", http.StatusServiceUnavailable)
		return
	}
	defer release()

	// Create a context with timeout
	callCtx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := h.Agent.Complete(callCtx, model, message)
	upstreamSeconds.WithLabelValues(slot).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			chatRequests.WithLabelValues(slot, "canceled").Inc()
			logAndReturnError(c, "Client canceled the request", http.StatusBadRequest)
			return
		}
		chatRequests.WithLabelValues(slot, "upstream_error").Inc()
		logAndReturnError(c, "Bad Gateway: failed to reach backend", http.StatusBadGateway, fmt.Sprintf("Error processing request: %s", err.Error()))
		return
	}

	if err := h.Cache.Put(ctx, model, message, reply); err != nil {
		log.Warnf("Could not cache reply for model %s: %v", model, err)
	}

	chatRequests.WithLabelValues(slot, "ok").Inc()
	writeReply(c, reply)
}

func writeReply(c *gin.Context, reply string) {
	data, err := codec.MarshalJSON(reply)
	if err != nil {
		logAndReturnError(c, "Internal Server Error", http.StatusInternalServerError, fmt.Sprintf("encoding reply: %v", err))
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
