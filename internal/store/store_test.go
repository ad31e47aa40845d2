package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := testStore(t)

	if _, _, ok := s.Get("missing"); ok {
		t.Fatal("missing key reported present")
	}

	if err := s.Put("k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw, at, ok := s.Get("k")
	if !ok {
		t.Fatal("key missing after put")
	}
	if string(raw) != `{"a":1}` {
		t.Fatalf("value = %s", raw)
	}
	if at.IsZero() {
		t.Fatal("write time not stamped")
	}

	if err := s.Put("k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	raw, _, _ = s.Get("k")
	if string(raw) != `{"a":2}` {
		t.Fatalf("overwrite lost: %s", raw)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok := s.Get("k"); ok {
		t.Fatal("key present after delete")
	}
}

func TestClockControlsWriteStamp(t *testing.T) {
	s := testStore(t)

	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return frozen })

	if err := s.Put("k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, at, ok := s.Get("k")
	if !ok {
		t.Fatal("key missing after put")
	}
	if !at.Equal(frozen) {
		t.Fatalf("write stamp = %v, want %v", at, frozen)
	}

	later := frozen.Add(42 * time.Minute)
	s.SetClock(func() time.Time { return later })
	if err := s.Put("k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, at, _ = s.Get("k")
	if !at.Equal(later) {
		t.Fatalf("write stamp after overwrite = %v, want %v", at, later)
	}
}

func TestScalarValueRoundTrip(t *testing.T) {
	s := testStore(t)

	// Bare JSON scalars must survive storage untouched; column affinity
	// coercion would turn "1500" into an integer and fail the read.
	for _, raw := range []string{`1500`, `"go"`, `true`} {
		if err := s.Put("scalar", []byte(raw)); err != nil {
			t.Fatalf("put %s: %v", raw, err)
		}
		got, _, ok := s.Get("scalar")
		if !ok {
			t.Fatalf("scalar %s reported missing", raw)
		}
		if string(got) != raw {
			t.Fatalf("round trip = %s, want %s", got, raw)
		}
	}
}

func TestDeletePrefix(t *testing.T) {
	s := testStore(t)

	keys := []string{"progress/u1/go-basics", "progress/u1/sql", "progress/u2/go-basics"}
	for _, k := range keys {
		if err := s.Put(k, []byte(`{}`)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	if err := s.DeletePrefix("progress/u1/"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, _, ok := s.Get("progress/u1/go-basics"); ok {
		t.Fatal("u1 entry survived prefix delete")
	}
	if _, _, ok := s.Get("progress/u2/go-basics"); !ok {
		t.Fatal("u2 entry removed by u1 prefix delete")
	}
}

func TestEmailHistory(t *testing.T) {
	s := testStore(t)

	for _, e := range []string{"a@x.io", "b@x.io", "A@x.io"} {
		if err := s.RecordEmail(e); err != nil {
			t.Fatalf("record %s: %v", e, err)
		}
	}
	got := s.EmailHistory()
	want := []string{"a@x.io", "b@x.io"}
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmailHistoryCap(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 15; i++ {
		if err := s.RecordEmail(string(rune('a'+i)) + "@x.io"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got := s.EmailHistory()
	if len(got) != 10 {
		t.Fatalf("history length = %d, want 10", len(got))
	}
	if got[0] != "o@x.io" {
		t.Fatalf("most recent = %q, want o@x.io", got[0])
	}
}

func TestDirtyFlag(t *testing.T) {
	s := testStore(t)

	if _, dirty := s.DirtyCourse(); dirty {
		t.Fatal("fresh store reports dirty")
	}

	s.MarkDirty("go-basics")
	course, dirty := s.DirtyCourse()
	if !dirty || course != "go-basics" {
		t.Fatalf("DirtyCourse = (%q, %v), want (go-basics, true)", course, dirty)
	}

	s.ClearDirty()
	if _, dirty := s.DirtyCourse(); dirty {
		t.Fatal("still dirty after clear")
	}
}

func TestMilestoneWatermark(t *testing.T) {
	s := testStore(t)

	if got := s.MilestoneWatermark("u1"); got != 0 {
		t.Fatalf("fresh watermark = %d, want 0", got)
	}
	if err := s.PutMilestoneWatermark("u1", 1500); err != nil {
		t.Fatalf("put watermark: %v", err)
	}
	if got := s.MilestoneWatermark("u1"); got != 1500 {
		t.Fatalf("watermark = %d, want 1500", got)
	}
	if got := s.MilestoneWatermark("u2"); got != 0 {
		t.Fatal("watermark leaked across users")
	}
}

func TestMilestoneWatermarkSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.PutMilestoneWatermark("u1", 1500); err != nil {
		t.Fatalf("put watermark: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()
	if got := s.MilestoneWatermark("u1"); got != 1500 {
		t.Fatalf("watermark after reopen = %d, want 1500", got)
	}
}
