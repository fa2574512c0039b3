// Package logging wires a zap logger to the eventbus so request, query and
// entity activity is logged uniformly regardless of which subsystem
// produced it.
package logging

import (
	"context"

	"go.uber.org/zap"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
	reqid "github.com/hanpama/hydrograph/internal/reqid"
)

// New builds the process logger.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Attach subscribes log sinks for the standard events and returns a detach
// function.
func Attach(log *zap.Logger) (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			log.Info("http request",
				zap.Int64("request_id", rid),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
			rid, _ := reqid.FromContext(ctx)
			fields := []zap.Field{
				zap.Int64("request_id", rid),
				zap.Int64("card_id", e.CardID),
				zap.String("database", e.Database),
				zap.Bool("cached", e.Cached),
				zap.Int("rows", e.Rows),
				zap.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				log.Error("card query failed", append(fields, zap.Error(e.Err))...)
				return
			}
			log.Info("card query", fields...)
		}),
		eventbus.Subscribe(func(_ context.Context, e events.EntityCreate) {
			log.Info("entity created", zap.String("model", e.Model), zap.Int64("model_id", e.ModelID))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.EntityUpdate) {
			log.Info("entity updated", zap.String("model", e.Model), zap.Int64("model_id", e.ModelID))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.EntityDelete) {
			log.Info("entity deleted", zap.String("model", e.Model), zap.Int64("model_id", e.ModelID))
		}),
	}
	return func() {
		for _, un := range unsubs {
			un()
		}
	}
}
