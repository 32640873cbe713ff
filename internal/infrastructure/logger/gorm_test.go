package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn() (string, int64) { return "SELECT 1", 1 }

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		want    string
	}{
		{"error logged", gormlogger.Error, 0, errors.New("boom"), "SQL Error"},
		{"not found ignored", gormlogger.Info, 0, gorm.ErrRecordNotFound, "SQL Query"},
		{"slow query warns", gormlogger.Warn, time.Second, nil, "Slow SQL"},
		{"fast query silent at warn", gormlogger.Warn, 0, nil, ""},
		{"info logs everything", gormlogger.Info, 0, nil, "SQL Query"},
		{"silent", gormlogger.Silent, time.Second, errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level, 100*time.Millisecond)

			ctx := WithRequestID(context.Background(), "req-9")
			l.Trace(ctx, time.Now().Add(-tt.elapsed), sqlFn, tt.err)

			if tt.want == "" {
				assert.Zero(t, recorded.Len())
				return
			}
			entries := recorded.FilterMessage(tt.want).All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
				assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
			}
		})
	}
}

func TestGormLogger_LogModeClones(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), gormlogger.Warn, 0)
	quiet := l.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Silent, quiet.level)
	assert.Equal(t, gormlogger.Warn, l.level)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
