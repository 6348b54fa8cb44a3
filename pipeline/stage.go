package pipeline

import (
	"context"
	"fmt"
	"time"

	"dealsense/utils"
)

// StageError records one per-item failure that the pipeline recovered from.
// The run aggregates these instead of aborting the batch.
type StageError struct {
	Stage  string
	ItemID string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage, item %s: %v", e.Stage, e.ItemID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// stage carries the execution parameters shared by all stage runs.
type stage struct {
	name    string
	logger  *utils.Logger
	timeout time.Duration
	workers int
	rateMs  int
}

type slot[R any] struct {
	val  R
	err  error
	done bool
}

// runSlots processes items into index-preserving slots so results keep the
// input order regardless of worker count. Cancellation stops scheduling;
// already-submitted work is drained before returning, so completed slots
// always form a prefix of the input.
func runSlots[I, R any](ctx context.Context, st stage, items []I, id func(I) string,
	fn func(context.Context, I) (R, error)) ([]slot[R], error) {

	slots := make([]slot[R], len(items))

	if st.workers > 1 {
		pool := utils.NewWorkerPool(st.workers, st.rateMs)
		for i := range items {
			if ctx.Err() != nil {
				break
			}
			i := i
			pool.Submit(func() {
				slots[i] = runOne(ctx, st, items[i], id(items[i]), i, len(items), fn)
			})
		}
		pool.Wait()
		return slots, ctx.Err()
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			return slots, err
		}
		slots[i] = runOne(ctx, st, items[i], id(items[i]), i, len(items), fn)
	}
	return slots, nil
}

func runOne[I, R any](ctx context.Context, st stage, item I, itemID string, index, total int,
	fn func(context.Context, I) (R, error)) slot[R] {

	st.logger.Progress(st.name, index+1, total, itemID)

	callCtx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	val, err := fn(callCtx, item)
	return slot[R]{val: val, err: err, done: true}
}

// runAll executes a stage whose output must stay the same length and order
// as its input: a failed item is replaced by fallback(item, cause) in place.
// The returned error is non-nil only when the context was cancelled, in
// which case the results cover the completed prefix of the input.
func runAll[I, R any](ctx context.Context, st stage, items []I, id func(I) string,
	fn func(context.Context, I) (R, error), fallback func(I, error) R) ([]R, []*StageError, error) {

	slots, ctxErr := runSlots(ctx, st, items, id, fn)

	results := make([]R, 0, len(items))
	var errs []*StageError
	for i, s := range slots {
		if !s.done {
			break
		}
		if s.err != nil {
			stageErr := &StageError{Stage: st.name, ItemID: id(items[i]), Err: s.err}
			st.logger.Warn("[%s] Item %s failed, substituting fallback: %v", st.name, stageErr.ItemID, s.err)
			errs = append(errs, stageErr)
			results = append(results, fallback(items[i], s.err))
			continue
		}
		results = append(results, s.val)
	}
	return results, errs, ctxErr
}

// runSurviving executes a stage where a failed item is dropped from the
// output: the batch continues with fewer records. Order of survivors matches
// the input order.
func runSurviving[I, R any](ctx context.Context, st stage, items []I, id func(I) string,
	fn func(context.Context, I) (R, error)) ([]R, []*StageError, error) {

	slots, ctxErr := runSlots(ctx, st, items, id, fn)

	results := make([]R, 0, len(items))
	var errs []*StageError
	for i, s := range slots {
		if !s.done {
			break
		}
		if s.err != nil {
			stageErr := &StageError{Stage: st.name, ItemID: id(items[i]), Err: s.err}
			st.logger.Warn("[%s] Item %s failed, dropping: %v", st.name, stageErr.ItemID, s.err)
			errs = append(errs, stageErr)
			continue
		}
		results = append(results, s.val)
	}
	return results, errs, ctxErr
}
