package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartstore/backend/internal/infrastructure/config"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return db
}

func TestRegisterGormTracing_Disabled(t *testing.T) {
	db := openTestDB(t)

	err := RegisterGormTracing(db, config.TelemetryConfig{Enabled: true, DBTraceEnabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, db.Callback().Query().Get("telemetry:after_query"))
}

func TestRegisterGormTracing_Enabled(t *testing.T) {
	db := openTestDB(t)

	err := RegisterGormTracing(db, config.TelemetryConfig{Enabled: true, DBTraceEnabled: true}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, db.Callback().Query().Get("telemetry:before_query"))
	assert.NotNil(t, db.Callback().Raw().Get("telemetry:after_raw"))

	var n int
	require.NoError(t, db.WithContext(t.Context()).Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}

func TestMarkSpan_FlagsSlowQueries(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(t.Context(), "query")

	tx := openTestDB(t).WithContext(ctx)
	tx.Statement.Table = "orders"
	tx.Statement.RowsAffected = 3
	tx.InstanceSet(queryStartKey, time.Now().Add(-time.Second))

	markSpan(tx, 100*time.Millisecond)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "orders", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
	assert.True(t, attrs["db.slow_query"].AsBool())
}
