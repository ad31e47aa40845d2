package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
)

// DefaultPollInterval is the dirty-flag cadence: polling trades up to ~1s
// of latency for resilience to missed events.
const DefaultPollInterval = 900 * time.Millisecond

// Syncer watches the shared dirty flag and silently refreshes the affected
// course, so independently running components converge without sharing
// memory.
type Syncer struct {
	store    *store.Store
	bus      *bus.Bus
	session  SessionService
	progress ProgressService
	courses  CourseService
	log      *logger.Logger

	interval time.Duration
}

func NewSyncer(st *store.Store, b *bus.Bus, session SessionService, ps ProgressService, cs CourseService, log *logger.Logger) *Syncer {
	return &Syncer{
		store:    st,
		bus:      b,
		session:  session,
		progress: ps,
		courses:  cs,
		log:      log.With("service", "Syncer"),
		interval: DefaultPollInterval,
	}
}

// SetInterval overrides the poll cadence. Test helper.
func (s *Syncer) SetInterval(d time.Duration) { s.interval = d }

// Start runs the poll loop until ctx is cancelled. Only an authenticated
// session polls; the flag is meaningless for anonymous users.
func (s *Syncer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.session.Authenticated() {
					continue
				}
				s.Tick(ctx)
			}
		}
	}()
}

// Tick performs one dirty-flag check: refresh the named course, clear the
// flag, tell listeners. Also the handler for focus/visibility triggers.
func (s *Syncer) Tick(ctx context.Context) {
	courseKey, dirty := s.store.DirtyCourse()
	if !dirty {
		return
	}

	if courseKey != "" {
		if err := s.progress.Tracker(courseKey).Refresh(ctx); err != nil {
			// Leave the flag set; the next tick retries.
			s.log.Debug("dirty refresh failed", "course", courseKey, "error", err)
			return
		}
	}
	s.store.ClearDirty()
	s.bus.Publish(ctx, bus.Message{Event: bus.EventProgressChanged, CourseKey: courseKey})
}

// SyncAll refreshes progress for every enrolled course concurrently.
// Individual failures are collected, not fatal to the others.
func (s *Syncer) SyncAll(ctx context.Context) error {
	courses, err := s.courses.MyLearning(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, c := range courses {
		slug := c.Slug
		g.Go(func() error {
			return s.progress.Tracker(slug).Refresh(gctx)
		})
	}
	return g.Wait()
}
