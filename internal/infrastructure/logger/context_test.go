package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newCaptureLogger() (*zap.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return zap.New(core), buf
}

func TestWithContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	assert.Equal(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestWithRequestID(t *testing.T) {
	ctx, enriched := WithRequestID(context.Background(), zap.NewNop(), "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, enriched, FromContext(ctx))
}

func TestWithActorID(t *testing.T) {
	ctx, _ := WithActorID(context.Background(), zap.NewNop(), "actor-456")

	assert.Equal(t, "actor-456", GetActorID(ctx))
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestContextLogger_InjectsContextFields(t *testing.T) {
	base, buf := newCaptureLogger()

	ctx := context.Background()
	ctx = context.WithValue(ctx, RequestIDKey, "req-aaa")
	ctx = context.WithValue(ctx, ActorIDKey, "actor-bbb")

	WithLogger(ctx, base).Info("hello")

	output := buf.String()
	assert.Contains(t, output, "hello")
	assert.Contains(t, output, "req-aaa")
	assert.Contains(t, output, "actor-bbb")
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() {
		cl.Info("should not panic")
	})
}

func TestContextLogger_With(t *testing.T) {
	base, buf := newCaptureLogger()

	WithLogger(context.Background(), base).
		With(zap.String("order_id", "ord-1")).
		Info("scoped")

	assert.Contains(t, buf.String(), "scoped")
}
