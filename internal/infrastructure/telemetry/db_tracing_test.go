package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedOrder struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func newTracingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedOrder{}))
	return db
}

// newSpanRecorder installs a recording tracer provider globally so the
// otelgorm spans land in the recorder, and restores the previous provider
// on cleanup.
func newSpanRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return tp, recorder
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.True(t, cfg.WithoutVariables)
}

func TestDBTracingPlugin_RegisterOtelGorm(t *testing.T) {
	tests := []struct {
		name string
		cfg  DBTracingConfig
	}{
		{
			name: "disabled is a no-op",
			cfg:  DefaultDBTracingConfig(),
		},
		{
			name: "enabled without variables",
			cfg: DBTracingConfig{
				Enabled:          true,
				SlowQueryThresh:  200 * time.Millisecond,
				DBSystem:         "sqlite",
				WithoutVariables: true,
			},
		},
		{
			name: "enabled with full SQL",
			cfg: DBTracingConfig{
				Enabled:         true,
				LogFullSQL:      true,
				SlowQueryThresh: 200 * time.Millisecond,
				DBSystem:        "sqlite",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTracingTestDB(t)
			plugin := NewDBTracingPlugin(tt.cfg, zap.NewNop())

			assert.NoError(t, plugin.RegisterOtelGorm(db))
		})
	}
}

func TestDBTracingPlugin_SpanAnnotation(t *testing.T) {
	tp, recorder := newSpanRecorder(t)

	db := newTracingTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:          true,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: true,
	}, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedOrder{Name: "order-1"}).Error)
	parent.End()

	var created sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		for _, attr := range span.Attributes() {
			if attr.Key == "db.sql.table" && attr.Value.AsString() == "traced_orders" {
				created = span
			}
		}
	}
	require.NotNil(t, created, "expected a span annotated with the table name")

	attrs := attributeMap(created.Attributes())
	assert.Equal(t, int64(1), attrs["db.rows_affected"].AsInt64())
}

func TestDBTracingPlugin_SlowQueryEvent(t *testing.T) {
	tp, recorder := newSpanRecorder(t)

	db := newTracingTestDB(t)
	// Zero threshold makes every query slow
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:  true,
		DBSystem: "sqlite",
	}, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	var rows []tracedOrder
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	found := false
	for _, span := range recorder.Ended() {
		for _, event := range span.Events() {
			if event.Name == "slow_query_warning" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a slow_query_warning event")
}

func TestDBTracingPlugin_RecordNotFoundIsNotAnError(t *testing.T) {
	tp, recorder := newSpanRecorder(t)

	db := newTracingTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	var row tracedOrder
	err := db.WithContext(ctx).First(&row, 9999).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	parent.End()

	for _, span := range recorder.Ended() {
		assert.NotEqual(t, codes.Error, span.Status().Code,
			"record-not-found must not mark span %q as error", span.Name())
	}
}

func attributeMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, attr := range attrs {
		m[attr.Key] = attr.Value
	}
	return m
}
