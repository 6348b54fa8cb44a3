package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"dealsense/utils"
)

func testStage(workers int) stage {
	return stage{
		name:    "test",
		logger:  utils.NewLogger(),
		timeout: 5 * time.Second,
		workers: workers,
	}
}

func itemID(i int) string { return strconv.Itoa(i) }

func TestRunAllSubstitutesFallbackInPlace(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	failAt := 2

	results, errs, ctxErr := runAll(context.Background(), testStage(1), items, itemID,
		func(_ context.Context, i int) (string, error) {
			if i == failAt {
				return "", errors.New("induced failure")
			}
			return fmt.Sprintf("ok-%d", i), nil
		},
		func(i int, err error) string {
			return fmt.Sprintf("fallback-%d", i)
		},
	)

	if ctxErr != nil {
		t.Fatalf("unexpected context error: %v", ctxErr)
	}
	if len(results) != len(items) {
		t.Fatalf("fallback mode must preserve length: got %d, want %d", len(results), len(items))
	}
	for i, r := range results {
		want := fmt.Sprintf("ok-%d", i)
		if i == failAt {
			want = fmt.Sprintf("fallback-%d", i)
		}
		if r != want {
			t.Errorf("index %d: got %q, want %q", i, r, want)
		}
	}
	if len(errs) != 1 || errs[0].ItemID != "2" || errs[0].Stage != "test" {
		t.Errorf("unexpected errors: %+v", errs)
	}
}

func TestRunSurvivingDropsFailedItems(t *testing.T) {
	items := []int{0, 1, 2, 3}

	results, errs, ctxErr := runSurviving(context.Background(), testStage(1), items, itemID,
		func(_ context.Context, i int) (string, error) {
			if i == 1 {
				return "", errors.New("induced failure")
			}
			return fmt.Sprintf("ok-%d", i), nil
		},
	)

	if ctxErr != nil {
		t.Fatalf("unexpected context error: %v", ctxErr)
	}
	want := []string{"ok-0", "ok-2", "ok-3"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, r := range results {
		if r != want[i] {
			t.Errorf("index %d: got %q, want %q", i, r, want[i])
		}
	}
	if len(errs) != 1 || errs[0].ItemID != "1" {
		t.Errorf("unexpected errors: %+v", errs)
	}
}

func TestRunAllConcurrentPreservesOrder(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	results, errs, ctxErr := runAll(context.Background(), testStage(4), items, itemID,
		func(_ context.Context, i int) (int, error) {
			time.Sleep(time.Duration(20-i) * time.Millisecond)
			return i * 10, nil
		},
		func(i int, _ error) int { return -1 },
	)

	if ctxErr != nil {
		t.Fatalf("unexpected context error: %v", ctxErr)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r != i*10 {
			t.Errorf("index %d: got %d, want %d — concurrent results out of order", i, r, i*10)
		}
	}
}

func TestRunAllCancellationReturnsCompletedPrefix(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := []int{0, 1, 2, 3, 4}
	cancelAfter := 2

	results, _, ctxErr := runAll(ctx, testStage(1), items, itemID,
		func(_ context.Context, i int) (string, error) {
			if i == cancelAfter-1 {
				cancel()
			}
			return fmt.Sprintf("ok-%d", i), nil
		},
		func(i int, _ error) string { return "fallback" },
	)

	if !errors.Is(ctxErr, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", ctxErr)
	}
	if len(results) != cancelAfter {
		t.Fatalf("expected %d completed results, got %d", cancelAfter, len(results))
	}
	for i, r := range results {
		if r != fmt.Sprintf("ok-%d", i) {
			t.Errorf("index %d: got %q", i, r)
		}
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &StageError{Stage: "analyze", ItemID: "42", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("StageError should unwrap to its cause")
	}
	msg := err.Error()
	if msg != "analyze stage, item 42: root cause" {
		t.Errorf("unexpected message: %q", msg)
	}
}
