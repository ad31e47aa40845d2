package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
	"github.com/yungbote/learnbridge/internal/types"
	"github.com/yungbote/learnbridge/internal/xp"
)

// XPService tracks the experience balance, announces 500-point milestones
// at most once each, and does the server-side milestone bookkeeping.
type XPService interface {
	Balance(ctx context.Context) (int, error)
	Transactions(ctx context.Context) ([]types.XPTransaction, error)
	UnseenMilestones(ctx context.Context) ([]types.XPMilestone, error)
	MarkMilestoneSeen(ctx context.Context, id int) error
	Ping(ctx context.Context)

	// ObserveBalance runs the milestone watermark against newXP and
	// returns the tier to announce, or 0.
	ObserveBalance(newXP int) int

	// Watch reacts to xp-updated bus events until ctx is cancelled,
	// invoking notify for each newly reached tier.
	Watch(ctx context.Context, notify func(tier int))
}

type xpService struct {
	store   *store.Store
	apic    *api.Client
	bus     *bus.Bus
	session SessionService
	log     *logger.Logger

	checking atomic.Bool
}

func NewXPService(st *store.Store, apic *api.Client, b *bus.Bus, session SessionService, log *logger.Logger) XPService {
	return &xpService{
		store:   st,
		apic:    apic,
		bus:     b,
		session: session,
		log:     log.With("service", "XPService"),
	}
}

func (s *xpService) Balance(ctx context.Context) (int, error) {
	user, err := s.apic.Me(ctx)
	if err != nil {
		return 0, fmt.Errorf("xp balance: %w", err)
	}
	return user.XP, nil
}

func (s *xpService) Transactions(ctx context.Context) ([]types.XPTransaction, error) {
	txs, err := s.apic.XPTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("xp transactions: %w", err)
	}
	return txs, nil
}

func (s *xpService) UnseenMilestones(ctx context.Context) ([]types.XPMilestone, error) {
	ms, err := s.apic.UnseenMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("unseen milestones: %w", err)
	}
	return ms, nil
}

func (s *xpService) MarkMilestoneSeen(ctx context.Context, id int) error {
	return s.apic.MarkMilestoneSeen(ctx, id)
}

// Ping is fire-and-forget activity bookkeeping.
func (s *xpService) Ping(ctx context.Context) {
	if err := s.apic.ActivityPing(ctx); err != nil {
		s.log.Debug("activity ping failed", "error", err)
	}
}

func (s *xpService) ObserveBalance(newXP int) int {
	userKey := s.session.UserKey()
	w := xp.NewWatermark(s.store.MilestoneWatermark(userKey))
	tier := w.Advance(newXP)
	if tier == 0 {
		return 0
	}
	if err := s.store.PutMilestoneWatermark(userKey, w.LastShown()); err != nil {
		s.log.Warn("watermark persist failed", "error", err)
	}
	return tier
}

func (s *xpService) Watch(ctx context.Context, notify func(tier int)) {
	sub := s.bus.Subscribe(bus.EventXPUpdated)
	go func() {
		defer sub.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-sub.C:
				s.check(ctx, msg, notify)
			}
		}
	}()
}

// check is busy-flag guarded like every refresh-type operation: an
// xp-updated signal arriving mid-check is dropped, the next one converges.
func (s *xpService) check(ctx context.Context, msg bus.Message, notify func(tier int)) {
	if !s.checking.CompareAndSwap(false, true) {
		return
	}
	defer s.checking.Store(false)

	newXP := msg.XP
	if newXP == 0 {
		balance, err := s.Balance(ctx)
		if err != nil {
			s.log.Debug("milestone check skipped", "error", err)
			return
		}
		newXP = balance
	}
	if tier := s.ObserveBalance(newXP); tier != 0 && notify != nil {
		notify(tier)
	}
}
