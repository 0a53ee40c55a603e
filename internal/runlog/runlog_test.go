package runlog

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogKeepsAppendOrder(t *testing.T) {
	l := Discard()
	l.Info("one", nil)
	l.Warn("two", Fields{"k": 1})
	l.Error("three", nil)

	got := l.Entries()
	if len(got) != 3 {
		t.Fatalf("entries: got %d want 3", len(got))
	}
	want := []Level{LevelInfo, LevelWarning, LevelError}
	for i, e := range got {
		if e.Level != want[i] {
			t.Fatalf("entry %d level: got %q want %q", i, e.Level, want[i])
		}
	}
	if got[1].Fields["k"] != 1 {
		t.Fatalf("fields not kept: %#v", got[1].Fields)
	}
	if l.Count(LevelWarning) != 1 {
		t.Fatalf("Count(warning) = %d", l.Count(LevelWarning))
	}
}

func TestWithSharesEntriesAndMirrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	root := New(zap.New(core))
	child := root.With(zap.String("run_id", "r1"))

	child.Info("hello", Fields{"rows": 3})

	if len(root.Entries()) != 1 {
		t.Fatalf("child entry not visible from root")
	}
	if logs.Len() != 1 {
		t.Fatalf("mirrored entries: got %d want 1", logs.Len())
	}
	ctx := logs.All()[0].ContextMap()
	if ctx["run_id"] != "r1" {
		t.Fatalf("run_id not attached: %#v", ctx)
	}
}

func TestLogConcurrentAppends(t *testing.T) {
	l := Discard()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Info("tick", nil)
			}
		}()
	}
	wg.Wait()
	if n := len(l.Entries()); n != 400 {
		t.Fatalf("entries: got %d want 400", n)
	}
}
