package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelmatch/internal/logs"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reelmatchd.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, lines string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString(lines); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "accepted Heat\naccepted Ronin\nrun completed\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "accepted Ronin" || result.Lines[1] != "run completed" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestTailFromOffset(t *testing.T) {
	path := writeLog(t, "one\ntwo\n")

	first, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(first.Lines) != 2 {
		t.Fatalf("expected both lines, got %#v", first.Lines)
	}

	again, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: first.Offset})
	if err != nil {
		t.Fatalf("repeat tail: %v", err)
	}
	if len(again.Lines) != 0 || again.Offset != first.Offset {
		t.Fatalf("expected no new lines at offset %d, got %#v (offset %d)", first.Offset, again.Lines, again.Offset)
	}

	appendLog(t, path, "three\n")
	next, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: again.Offset})
	if err != nil {
		t.Fatalf("tail after append: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "three" {
		t.Fatalf("unexpected appended lines: %#v", next.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result for missing file, got %#v", result)
	}
}

func TestTailClampsOffsetPastEnd(t *testing.T) {
	path := writeLog(t, "short\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 1 << 20})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("expected no lines past end, got %#v", result.Lines)
	}
	if result.Offset != int64(len("short\n")) {
		t.Fatalf("expected offset clamped to file size, got %d", result.Offset)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	initial, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(initial.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", initial.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
		close(done)
	}(initial.Offset)

	time.Sleep(200 * time.Millisecond)
	appendLog(t, path, "later\n")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}
