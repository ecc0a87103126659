package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewGormLogger(t *testing.T) {
	base, _ := newCaptureLogger()

	gl := NewGormLogger(base, gormlogger.Warn)
	assert.NotNil(t, gl)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_Options(t *testing.T) {
	base, _ := newCaptureLogger()

	gl := NewGormLogger(base, gormlogger.Info,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	base, _ := newCaptureLogger()
	gl := NewGormLogger(base, gormlogger.Warn)

	silenced := gl.LogMode(gormlogger.Silent)
	assert.NotSame(t, gl, silenced)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("logs sql errors", func(t *testing.T) {
		base, buf := newCaptureLogger()
		gl := NewGormLogger(base, gormlogger.Error)

		gl.Trace(ctx, time.Now(), func() (string, int64) {
			return "SELECT * FROM orders", 0
		}, errors.New("connection refused"))

		assert.Contains(t, buf.String(), "SQL Error")
	})

	t.Run("ignores record not found by default", func(t *testing.T) {
		base, buf := newCaptureLogger()
		gl := NewGormLogger(base, gormlogger.Error)

		gl.Trace(ctx, time.Now(), func() (string, int64) {
			return "SELECT * FROM orders WHERE id = ?", 0
		}, gormlogger.ErrRecordNotFound)

		assert.Empty(t, buf.String())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		base, buf := newCaptureLogger()
		gl := NewGormLogger(base, gormlogger.Warn, WithSlowThreshold(time.Nanosecond))

		gl.Trace(ctx, time.Now().Add(-time.Millisecond), func() (string, int64) {
			return "SELECT * FROM delivery_records", 100
		}, nil)

		assert.Contains(t, buf.String(), "SLOW SQL")
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		base, buf := newCaptureLogger()
		gl := NewGormLogger(base, gormlogger.Silent)

		gl.Trace(ctx, time.Now(), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		assert.Empty(t, buf.String())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything-else"))
}
