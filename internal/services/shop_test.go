package services

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/yungbote/learnbridge/internal/types"
)

func newShopEnv(t *testing.T, handler http.Handler) (*env, ShopService) {
	t.Helper()
	e := newEnv(t, handler)
	return e, NewShopService(e.apic, e.bus, nopLogger())
}

func TestPurchaseOptimisticRollback(t *testing.T) {
	_, shop := newShopEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not enough xp"}`, http.StatusBadRequest)
	}))

	item := types.AvatarItem{ID: 5, Price: 800}
	if err := shop.Purchase(context.Background(), &item); err == nil {
		t.Fatal("want purchase error")
	}
	if item.Owned {
		t.Fatal("owned flag not rolled back")
	}
}

func TestPurchaseOwnedIsNoop(t *testing.T) {
	var posts int32
	_, shop := newShopEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		w.Write([]byte(`{}`))
	}))

	item := types.AvatarItem{ID: 5, Owned: true}
	if err := shop.Purchase(context.Background(), &item); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if n := atomic.LoadInt32(&posts); n != 0 {
		t.Fatalf("server saw %d posts for an owned item", n)
	}
}

func TestEquipSwitchesSelection(t *testing.T) {
	_, shop := newShopEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	items := []types.AvatarItem{
		{ID: 1, Equipped: true},
		{ID: 2},
	}
	if err := shop.Equip(context.Background(), items, 2); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if items[0].Equipped || !items[1].Equipped {
		t.Fatalf("items = %+v", items)
	}
}

func TestEquipRollsBackWholeSet(t *testing.T) {
	_, shop := newShopEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	items := []types.AvatarItem{
		{ID: 1, Equipped: true},
		{ID: 2},
	}
	if err := shop.Equip(context.Background(), items, 2); err == nil {
		t.Fatal("want equip error")
	}
	if !items[0].Equipped || items[1].Equipped {
		t.Fatalf("rollback incomplete: %+v", items)
	}
}

func TestItemsDecode(t *testing.T) {
	_, shop := newShopEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"red hat","image":"hat.png","price":200,"purchased":true}]`))
	}))

	items, err := shop.Items(context.Background())
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || !items[0].Owned || items[0].ImageURL != "hat.png" {
		t.Fatalf("items = %+v", items)
	}
}
