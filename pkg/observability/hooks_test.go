package observability

import (
	"context"
	"testing"
	"time"
)

// recordingPipelineHooks counts events for testing.
type recordingPipelineHooks struct {
	NoopPipelineHooks
	layoutStarts    int
	layoutCompletes int
}

func (h *recordingPipelineHooks) OnLayoutStart(ctx context.Context, elementCount int) {
	h.layoutStarts++
}

func (h *recordingPipelineHooks) OnLayoutComplete(ctx context.Context, elementCount int, d time.Duration, err error) {
	h.layoutCompletes++
}

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	ctx := context.Background()

	// None of these may panic.
	Pipeline().OnLoadStart(ctx, "file")
	Pipeline().OnLayoutComplete(ctx, 10, time.Second, nil)
	Cache().OnCacheHit(ctx, "layout")
	Store().OnStoreWrite(ctx, "redis", "session:1", 128, time.Millisecond, nil)
}

func TestSetPipelineHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &recordingPipelineHooks{}
	SetPipelineHooks(h)

	ctx := context.Background()
	Pipeline().OnLayoutStart(ctx, 5)
	Pipeline().OnLayoutComplete(ctx, 5, time.Millisecond, nil)

	if h.layoutStarts != 1 || h.layoutCompletes != 1 {
		t.Errorf("recorded %d starts, %d completes; want 1, 1", h.layoutStarts, h.layoutCompletes)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &recordingPipelineHooks{}
	SetPipelineHooks(h)
	SetPipelineHooks(nil)

	Pipeline().OnLayoutStart(context.Background(), 1)
	if h.layoutStarts != 1 {
		t.Error("nil registration must not replace the current hooks")
	}
}

func TestReset(t *testing.T) {
	h := &recordingPipelineHooks{}
	SetPipelineHooks(h)
	Reset()

	Pipeline().OnLayoutStart(context.Background(), 1)
	if h.layoutStarts != 0 {
		t.Error("Reset should restore the no-op hooks")
	}
}
