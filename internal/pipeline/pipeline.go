// Package pipeline implements the bound-operation executor: a strictly
// left-to-right sequence of operations over a model.Product, each
// taking a copy of the state it mutates and committing only on
// success.
//
// Pipeline.Run walks its operations strictly in order, wrapping and
// propagating the first failure rather than reordering or partially
// applying later operations, the same shape an update-file apply loop
// would use to walk a sequence of updates in order.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/metrics"
	"github.com/harpgo/harp/internal/model"
)

// Operation is one bound, ready-to-apply pipeline step.
type Operation interface {
	// Apply returns the product resulting from applying the operation,
	// or an error if the operation cannot be applied to p. On error p
	// itself must be left untouched by the caller (Pipeline.Run enforces
	// this by operating on a fresh clone per step).
	Apply(p *model.Product) (*model.Product, error)

	// Fragment is the operation's source text, appended to the
	// product's history on success.
	Fragment() string
}

// Pipeline is an ordered, bound list of operations, ready to run
// against a product.
type Pipeline struct {
	Operations []Operation
}

// Run applies every operation in order. Each operation is given a
// clone of the current product; on success the clone becomes the new
// current product and its source fragment is appended to history. On
// failure, Run returns the error and the product as of the last
// successful operation, leaving it in its pre-operation state.
func (pl *Pipeline) Run(p *model.Product) (*model.Product, error) {
	return pl.RunContext(context.Background(), p)
}

// RunContext behaves like Run but checks ctx before each operation,
// aborting the walk with ctx.Err() as soon as the caller's region load
// or request is cancelled, so long-running pipelines stay cooperatively
// cancellable between operations.
func (pl *Pipeline) RunContext(ctx context.Context, p *model.Product) (result *model.Product, err error) {
	runID := uuid.New()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.PipelineRunTotal.WithLabelValues(outcome).Inc()
	}()

	current := p
	for i, op := range pl.Operations {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return current, ctxErr
		}
		next := current.Clone()
		start := time.Now()
		applied, applyErr := op.Apply(next)
		metrics.PipelineOperationSeconds.WithLabelValues(opLabel(op)).Observe(time.Since(start).Seconds())
		if applyErr != nil {
			return current, fmt.Errorf("run %s, product %s, operation %d (%s): %w", runID, current.ID(), i, op.Fragment(), applyErr)
		}
		applied.HistoryAppend(op.Fragment())
		current = applied
	}
	return current, nil
}

// opLabel names op by its concrete Go type, a small and stable label
// set suitable for a Prometheus metric (unlike op.Fragment(), which
// varies per call site).
func opLabel(op Operation) string {
	t := fmt.Sprintf("%T", op)
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		return t[i+1:]
	}
	return t
}

// ErrEmptyResult signals a runtime filter reduced the product to
// nothing.
var ErrEmptyResult = harperr.New(harperr.NoData, "operation produced an empty result")
