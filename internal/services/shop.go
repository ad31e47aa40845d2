package services

import (
	"context"
	"fmt"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/optimistic"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/types"
)

// ShopService lists cosmetic avatar items and runs purchase/equip as
// optimistic commands. Purchase failures are surfaced (money is involved);
// the local flags still revert either way.
type ShopService interface {
	Items(ctx context.Context) ([]types.AvatarItem, error)
	Purchase(ctx context.Context, item *types.AvatarItem) error
	Equip(ctx context.Context, items []types.AvatarItem, id int) error
}

type shopService struct {
	apic *api.Client
	bus  *bus.Bus
	log  *logger.Logger
}

func NewShopService(apic *api.Client, b *bus.Bus, log *logger.Logger) ShopService {
	return &shopService{
		apic: apic,
		bus:  b,
		log:  log.With("service", "ShopService"),
	}
}

func (s *shopService) Items(ctx context.Context) ([]types.AvatarItem, error) {
	items, err := s.apic.AvatarItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("avatar items: %w", err)
	}
	return items, nil
}

func (s *shopService) Purchase(ctx context.Context, item *types.AvatarItem) error {
	if item.Owned {
		return nil
	}
	err := optimistic.Run(ctx, s.log, optimistic.Command{
		Name:  "purchase_avatar_item",
		Apply: func() { item.Owned = true },
		Send: func(ctx context.Context) error {
			return s.apic.PurchaseAvatarItem(ctx, item.ID)
		},
		Rollback: func() { item.Owned = false },
	})
	if err != nil {
		return fmt.Errorf("purchase item %d: %w", item.ID, err)
	}
	// Spending XP moves the balance; listeners re-read it.
	s.bus.Publish(ctx, bus.Message{Event: bus.EventXPUpdated})
	return nil
}

// Equip marks one item equipped and the rest not, reverting the whole set
// on failure.
func (s *shopService) Equip(ctx context.Context, items []types.AvatarItem, id int) error {
	prev := make([]bool, len(items))
	for i := range items {
		prev[i] = items[i].Equipped
	}

	return optimistic.Run(ctx, s.log, optimistic.Command{
		Name: "equip_avatar_item",
		Apply: func() {
			for i := range items {
				items[i].Equipped = items[i].ID == id
			}
		},
		Send: func(ctx context.Context) error {
			return s.apic.EquipAvatarItem(ctx, id)
		},
		Rollback: func() {
			for i := range items {
				items[i].Equipped = prev[i]
			}
		},
	})
}
