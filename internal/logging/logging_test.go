package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core).With(zap.String("request_id", "r-1"))

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("hello")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "r-1", entries[0].ContextMap()["request_id"])
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	var unset context.Context
	assert.Same(t, zap.L(), FromContext(context.Background()))
	assert.Same(t, zap.L(), FromContext(unset))
}
