package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/oilchain/config"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	tracer, err := NewTracer(config.TracingConfig{})
	require.NoError(t, err)
	assert.Nil(t, tracer.Application())

	ctx, txn := tracer.StartTransaction(context.Background(), "reindex")
	assert.Nil(t, txn)

	assert.NotPanics(t, func() {
		tracer.AddAttribute(txn, "entity", "expeditions")
		Segment(ctx, "load").End()
		tracer.EndTransaction(txn, errors.New("boom"))
		tracer.Close()
	})
}
