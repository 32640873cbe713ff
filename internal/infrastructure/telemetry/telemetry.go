package telemetry

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/infrastructure/config"
)

// Telemetry bundles the providers started at boot
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts every provider the config enables. Span profiles are
// linked once both tracing and profiling are running.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	tp, err := NewTracerProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mp, err := NewMeterProvider(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	lp, err := NewLoggerProvider(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	prof, err := NewProfiler(cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = lp.Shutdown(ctx)
		return nil, err
	}
	if prof.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	return &Telemetry{Tracer: tp, Meter: mp, Logs: lp, Profiler: prof}, nil
}

// Shutdown stops all providers and joins their errors
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Tracer.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Logs.Shutdown(ctx),
		t.Profiler.Stop(),
	)
}
