package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

type nodeStartKey struct{ name string }

// newNodeHandler logs lambda node boundaries with their elapsed time.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if info == nil || info.Component != compose.ComponentOfLambda {
				return ctx
			}
			logx.Debug().Str("run_id", model.RunIDFrom(ctx)).Str("node", info.Name).Msg("Node started")
			return context.WithValue(ctx, nodeStartKey{info.Name}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if info == nil || info.Component != compose.ComponentOfLambda {
				return ctx
			}
			ev := logx.Debug().Str("run_id", model.RunIDFrom(ctx)).Str("node", info.Name)
			if start, ok := ctx.Value(nodeStartKey{info.Name}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(start))
			}
			ev.Msg("Node finished")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			name := ""
			if info != nil {
				name = info.Name
			}
			logx.Error().Err(err).Str("run_id", model.RunIDFrom(ctx)).Str("node", name).Msg("Node failed")
			return ctx
		}).
		Build()
}
