package tracing

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/oilchain/config"
)

// Tracer defines the interface for tracing
type Tracer interface {
	Application() *newrelic.Application
	StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction)
	EndTransaction(txn *newrelic.Transaction, err error)
	AddAttribute(txn *newrelic.Transaction, key string, value interface{})
	Close()
}

// NewRelicTracer implements Tracer using New Relic. With no license key it
// hands out nil transactions, on which every newrelic call is a no-op.
type NewRelicTracer struct {
	app     *newrelic.Application
	enabled bool
}

// NewTracer creates a new tracer
func NewTracer(cfg config.TracingConfig) (Tracer, error) {
	if cfg.LicenseKey == "" {
		log.Warn().Msg("New Relic license key not provided, tracing will be disabled")
		return Disabled(), nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(cfg.DistribTracing),
		newrelic.ConfigAppLogForwardingEnabled(cfg.LogEnabled),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}

	return &NewRelicTracer{app: app, enabled: true}, nil
}

// Disabled returns a tracer that records nothing
func Disabled() Tracer {
	return &NewRelicTracer{}
}

// Application returns the agent application, nil when tracing is disabled
func (t *NewRelicTracer) Application() *newrelic.Application {
	return t.app
}

// StartTransaction starts a background transaction and stores it in the returned context
func (t *NewRelicTracer) StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	if !t.enabled {
		return ctx, nil
	}
	txn := t.app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn
}

// EndTransaction records err, if any, and ends the transaction
func (t *NewRelicTracer) EndTransaction(txn *newrelic.Transaction, err error) {
	if txn == nil {
		return
	}
	if err != nil {
		txn.NoticeError(err)
	}
	txn.End()
}

// AddAttribute adds an attribute to a transaction
func (t *NewRelicTracer) AddAttribute(txn *newrelic.Transaction, key string, value interface{}) {
	if txn == nil {
		return
	}
	txn.AddAttribute(key, value)
}

// Close flushes pending data
func (t *NewRelicTracer) Close() {
	if !t.enabled {
		return
	}
	t.app.Shutdown(10 * time.Second)
	log.Info().Msg("New Relic tracer shutdown")
}

// Segment starts a segment on the transaction carried by ctx. The returned
// segment is safe to End when ctx carries none.
func Segment(ctx context.Context, name string) *newrelic.Segment {
	return newrelic.FromContext(ctx).StartSegment(name)
}
