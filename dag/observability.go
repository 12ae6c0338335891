package dag

import (
	"context"
	"time"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/observability"
)

// runFunc continues execution of the wrapped node.
type runFunc func(ctx context.Context) (Value, error)

// decorated wraps a node with behaviour around Run. Name and op name stay
// those of the wrapped node, so decorators stack freely.
type decorated struct {
	Node
	op     string
	around func(ctx context.Context, state *State, next runFunc) (Value, error)
}

func decorate(n Node, around func(context.Context, *State, runFunc) (Value, error)) Node {
	return &decorated{Node: n, op: OpName(n), around: around}
}

func (d *decorated) Op() string { return d.op }

func (d *decorated) Run(ctx context.Context, state *State) (Value, error) {
	return d.around(ctx, state, func(ctx context.Context) (Value, error) {
		return d.Node.Run(ctx, state)
	})
}

// WithTracing opens a "<prefix>.<node>" span around every execution,
// annotated with the node, op and sample index.
func WithTracing(n Node, prefix string) Node {
	name := prefix + "." + n.Name()
	return decorate(n, func(ctx context.Context, state *State, next runFunc) (Value, error) {
		ctx, span := observability.StartSpan(ctx, name)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrNode, n.Name())
		observability.SetSpanAttribute(ctx, observability.AttrOp, OpName(n))
		observability.SetSpanAttribute(ctx, observability.AttrSample, state.Index)
		v, err := next(ctx)
		observability.SetSpanError(ctx, err)
		return v, err
	})
}

// WithMetrics times every execution and counts failures by error code.
func WithMetrics(n Node, m *observability.Metrics) Node {
	return decorate(n, func(ctx context.Context, _ *State, next runFunc) (Value, error) {
		began := time.Now()
		v, err := next(ctx)
		status := "ok"
		if err != nil {
			status = "error"
			m.RecordError(ctx, errorCode(err), "dag")
		}
		m.RecordNode(ctx, n.Name(), OpName(n), status, time.Since(began))
		return v, err
	})
}

// WithLogging logs failures at error level and successes at debug level.
func WithLogging(n Node, log *logger.Logger) Node {
	return decorate(n, func(ctx context.Context, state *State, next runFunc) (Value, error) {
		began := time.Now()
		v, err := next(ctx)
		fields := map[string]interface{}{
			logger.FieldNode:     n.Name(),
			logger.FieldSample:   state.Index,
			logger.FieldDuration: time.Since(began).Milliseconds(),
		}
		if err != nil {
			log.Error("dag node failed", logger.MergeWithError(fields, err))
		} else {
			log.Debug("dag node completed", fields)
		}
		return v, err
	})
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "UNKNOWN"
}
