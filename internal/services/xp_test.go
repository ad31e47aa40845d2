package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/learnbridge/internal/bus"
)

func newXPEnv(t *testing.T, handler http.Handler) (*env, XPService) {
	t.Helper()
	e := newEnv(t, handler)
	xs := NewXPService(e.store, e.apic, e.bus, e.session, nopLogger())
	return e, xs
}

func TestObserveBalanceWatermarkPersists(t *testing.T) {
	_, xs := newXPEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	var announced []int
	for _, newXP := range []int{480, 700, 1200} {
		if tier := xs.ObserveBalance(newXP); tier != 0 {
			announced = append(announced, tier)
		}
	}
	want := []int{500, 1000}
	if len(announced) != len(want) || announced[0] != 500 || announced[1] != 1000 {
		t.Fatalf("announced %v, want %v", announced, want)
	}

	// Watermark survives a process restart (it lives in the store).
	if tier := xs.ObserveBalance(1200); tier != 0 {
		t.Fatalf("tier %d re-announced", tier)
	}
}

func TestWatchAnnouncesOnBusEvent(t *testing.T) {
	e, xs := newXPEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":42,"xp":1250}`))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tiers := make(chan int, 4)
	xs.Watch(ctx, func(tier int) { tiers <- tier })

	// XP carried on the event itself: no balance fetch needed.
	e.bus.Publish(ctx, bus.Message{Event: bus.EventXPUpdated, XP: 620})
	select {
	case tier := <-tiers:
		if tier != 500 {
			t.Fatalf("tier = %d, want 500", tier)
		}
	case <-time.After(time.Second):
		t.Fatal("no milestone announced")
	}

	// No XP on the event: the watcher fetches the balance (1250 -> 1000).
	e.bus.Publish(ctx, bus.Message{Event: bus.EventXPUpdated})
	select {
	case tier := <-tiers:
		if tier != 1000 {
			t.Fatalf("tier = %d, want 1000", tier)
		}
	case <-time.After(time.Second):
		t.Fatal("no milestone announced from fetched balance")
	}
}

func TestTransactionsDecode(t *testing.T) {
	_, xs := newXPEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"amount":50,"label":"lesson completed","created_at":"2026-02-01T10:00:00Z"}]`))
	}))

	txs, err := xs.Transactions(context.Background())
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Reason != "lesson completed" {
		t.Fatalf("txs = %+v", txs)
	}
}
