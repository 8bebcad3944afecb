package manager

import (
	"context"
	"strings"
	"sync"
	"time"

	"runagent/config"
)

const defaultModel = "default"

// ModelMetrics holds the metrics for a specific model.
type ModelMetrics struct {
	Model                  string
	QueueSize              int
	ProcessingCount        int
	LastLogTime            time.Time
	queueSizeChanged       bool
	processingCountChanged bool
	mu                     sync.Mutex
}

// ConcurrencyManager limits how many agent calls run at once per model.
// Models without their own entry share the "default" slots.
type ConcurrencyManager struct {
	semMap       map[string]chan struct{}
	metricsMap   map[string]*ModelMetrics
	mu           sync.Mutex
	defaultSize  int
	queueTimeout time.Duration
	done         chan struct{}
	shutdownOnce sync.Once
}

// NewConcurrencyManager initializes a new ConcurrencyManager with model configurations and a default concurrency limit.
// queueTimeout bounds how long Acquire waits for a slot.
func NewConcurrencyManager(modelConfigs map[string]config.ModelConfigEntry, defaultSize int, queueTimeout time.Duration) *ConcurrencyManager {
	cm := &ConcurrencyManager{
		semMap:       make(map[string]chan struct{}),
		metricsMap:   make(map[string]*ModelMetrics),
		defaultSize:  defaultSize,
		queueTimeout: queueTimeout,
		done:         make(chan struct{}),
	}

	for name, cfg := range modelConfigs {
		// Validate size
		size := cfg.Size
		if size <= 0 {
			size = 10
			log.Warnf("Model '%s' has invalid size %d. Setting to default size %d.", name, cfg.Size, size)
		}
		name = strings.ToLower(name)
		cm.semMap[name] = make(chan struct{}, size)
		cm.metricsMap[name] = &ModelMetrics{
			Model: name,
		}
	}

	if cm.defaultSize <= 0 {
		cm.defaultSize = 1
	}
	cm.semMap[defaultModel] = make(chan struct{}, cm.defaultSize)
	cm.metricsMap[defaultModel] = &ModelMetrics{
		Model: defaultModel,
	}

	// Start monitoring goroutines for each model
	for _, metrics := range cm.metricsMap {
		go cm.monitorMetrics(metrics)
	}

	return cm
}

// Acquire waits for a slot for the given model. It returns a release func and
// true on success, or false once the queue timeout passes or ctx is done.
func (cm *ConcurrencyManager) Acquire(ctx context.Context, model string) (func(), bool) {
	cm.mu.Lock()
	key := cm.slotName(model)
	sem := cm.semMap[key]
	metrics := cm.metricsMap[key]
	cm.mu.Unlock()

	metrics.incrementQueue()

	timer := time.NewTimer(cm.queueTimeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		metrics.incrementProcessing()
		metrics.decrementQueue()

		var once sync.Once
		return func() {
			once.Do(func() {
				metrics.decrementProcessing()
				<-sem
			})
		}, true
	case <-timer.C:
		metrics.decrementQueue()
		return nil, false
	case <-ctx.Done():
		metrics.decrementQueue()
		return nil, false
	}
}

// Snapshot returns the queued and processing counts for a model's slot group.
func (cm *ConcurrencyManager) Snapshot(model string) (queued, processing int) {
	cm.mu.Lock()
	metrics := cm.metricsMap[cm.slotName(model)]
	cm.mu.Unlock()

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	return metrics.QueueSize, metrics.ProcessingCount
}

// SlotName returns the slot group model is counted under: its own configured
// entry, or "default". The set of names is fixed by NewConcurrencyManager.
func (cm *ConcurrencyManager) SlotName(model string) string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.slotName(model)
}

// slotName must be called with cm.mu held.
func (cm *ConcurrencyManager) slotName(model string) string {
	key := strings.ToLower(model)
	if _, ok := cm.semMap[key]; ok {
		return key
	}
	return defaultModel
}

// monitorMetrics monitors changes in the metrics and logs them appropriately.
func (cm *ConcurrencyManager) monitorMetrics(metrics *ModelMetrics) {
	ticker := time.NewTicker(500 * time.Millisecond) // Check twice every second
	defer ticker.Stop()

	for {
		select {
		case <-cm.done:
			return
		case <-ticker.C:
		}

		metrics.mu.Lock()
		currentTime := time.Now()
		if (metrics.queueSizeChanged || metrics.processingCountChanged) &&
			currentTime.Sub(metrics.LastLogTime) >= time.Second {
			log.Infof("Model: %s | Queued: %d | Processing: %d",
				metrics.Model, metrics.QueueSize, metrics.ProcessingCount)
			metrics.LastLogTime = currentTime
			metrics.resetChangeFlags()
		}
		metrics.mu.Unlock()
	}
}

// Methods for ModelMetrics

func (m *ModelMetrics) incrementQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueSize++
	m.queueSizeChanged = true
	queuedGauge.WithLabelValues(m.Model).Set(float64(m.QueueSize))
}

func (m *ModelMetrics) decrementQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueueSize > 0 {
		m.QueueSize--
		m.queueSizeChanged = true
	}
	queuedGauge.WithLabelValues(m.Model).Set(float64(m.QueueSize))
}

func (m *ModelMetrics) incrementProcessing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessingCount++
	m.processingCountChanged = true
	processingGauge.WithLabelValues(m.Model).Set(float64(m.ProcessingCount))
}

func (m *ModelMetrics) decrementProcessing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProcessingCount > 0 {
		m.ProcessingCount--
		m.processingCountChanged = true
	}
	processingGauge.WithLabelValues(m.Model).Set(float64(m.ProcessingCount))
}

func (m *ModelMetrics) resetChangeFlags() {
	m.queueSizeChanged = false
	m.processingCountChanged = false
}

// Shutdown stops the metric monitors. Slots already held stay valid.
func (cm *ConcurrencyManager) Shutdown() {
	cm.shutdownOnce.Do(func() {
		close(cm.done)
	})
}
