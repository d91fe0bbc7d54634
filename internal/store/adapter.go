package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce    sync.Once
	decodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "everhack",
		Subsystem: "store",
		Name:      "decode_failures_total",
		Help:      "Count of malformed JSON values replaced by defaults",
	}, []string{"key"})
)

func registerMetrics() {
	metricsOnce.Do(func() {
		if err := prometheus.Register(decodeFailures); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					decodeFailures = existing
				}
			}
		}
	})
}

// Adapter reads and writes JSON documents on top of a Store.
type Adapter struct {
	store  Store
	logger *slog.Logger
}

// NewAdapter wraps a Store with JSON encoding.
func NewAdapter(s Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	registerMetrics()
	return &Adapter{store: s, logger: logger}
}

// Read decodes the JSON value under key into a T. Absent keys and malformed
// payloads yield fallback; a malformed payload is logged and counted but not
// returned as an error. Only backend failures surface as errors.
func Read[T any](ctx context.Context, a *Adapter, key string, fallback T) (T, error) {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fallback, nil
		}
		return fallback, fmt.Errorf("read %s: %w", key, err)
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		a.logger.Warn("discarding malformed stored value", "key", key, "error", err)
		decodeFailures.WithLabelValues(key).Inc()
		return fallback, nil
	}
	return value, nil
}

// Write serializes value and stores it under key.
func (a *Adapter) Write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Store exposes the underlying backend.
func (a *Adapter) Store() Store {
	return a.store
}

// Close releases the underlying backend.
func (a *Adapter) Close() error {
	return a.store.Close()
}
