package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/cache"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
	"github.com/yungbote/learnbridge/internal/types"
)

// ProgressService hands out one tracker per course for the current user.
// Trackers are memoized so every consumer of a course shares the same
// in-flight guards and in-memory snapshot.
type ProgressService interface {
	Tracker(courseKey string) *Tracker
}

type progressService struct {
	store   *store.Store
	apic    *api.Client
	bus     *bus.Bus
	session SessionService
	log     *logger.Logger

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewProgressService(st *store.Store, apic *api.Client, b *bus.Bus, session SessionService, log *logger.Logger) ProgressService {
	return &progressService{
		store:    st,
		apic:     apic,
		bus:      b,
		session:  session,
		log:      log.With("service", "ProgressService"),
		trackers: make(map[string]*Tracker),
	}
}

func (s *progressService) Tracker(courseKey string) *Tracker {
	userKey := s.session.UserKey()
	key := store.ProgressKey(userKey, courseKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trackers[key]; ok {
		return t
	}
	t := &Tracker{
		courseKey: courseKey,
		userKey:   userKey,
		store:     s.store,
		apic:      s.apic,
		bus:       s.bus,
		cache:     cache.New[types.Snapshot](s.store, s.log, cache.TTLProgress),
		log:       s.log.With("course", courseKey),
	}
	s.trackers[key] = t
	return t
}

// Tracker mirrors server-side progress for one (user, course) pair: cache
// reads are synchronous so gating never waits on the network, refreshes
// reconcile against server truth in the background.
type Tracker struct {
	courseKey string
	userKey   string

	store *store.Store
	apic  *api.Client
	bus   *bus.Bus
	cache *cache.Cache[types.Snapshot]
	log   *logger.Logger

	mu   sync.RWMutex
	snap *types.Snapshot
	cert *types.Certificate

	refreshing atomic.Bool
	certBusy   atomic.Bool
}

func (t *Tracker) CourseKey() string { return t.courseKey }

func (t *Tracker) cacheKey() string {
	return store.ProgressKey(t.userKey, t.courseKey)
}

// Snapshot returns the current in-memory snapshot, falling back to the
// cache. Nil means no local knowledge at all.
func (t *Tracker) Snapshot() *types.Snapshot {
	t.mu.RLock()
	snap := t.snap
	t.mu.RUnlock()
	if snap != nil {
		return snap
	}
	return t.ApplyCached()
}

// ApplyCached loads the cached snapshot into memory and returns it.
// Synchronous, never errors: expired and malformed entries are misses.
func (t *Tracker) ApplyCached() *types.Snapshot {
	v, ok := t.cache.Read(t.cacheKey())
	if !ok {
		return nil
	}
	snap := &v
	t.mu.Lock()
	if t.snap == nil {
		t.snap = snap
	} else {
		snap = t.snap
	}
	t.mu.Unlock()
	return snap
}

func (t *Tracker) writeSnapshot(snap *types.Snapshot) {
	t.mu.Lock()
	t.snap = snap
	t.mu.Unlock()
	if snap != nil {
		if err := t.cache.Write(t.cacheKey(), *snap); err != nil {
			t.log.Warn("progress cache write failed", "error", err)
		}
	}
}

// Refresh reconciles against server truth. A call while another refresh is
// in flight is dropped, not queued; the periodic poller converges later.
// Cache is applied first so consumers see last-known-good state instantly.
func (t *Tracker) Refresh(ctx context.Context) error {
	if !t.refreshing.CompareAndSwap(false, true) {
		return nil
	}
	defer t.refreshing.Store(false)

	t.ApplyCached()

	fresh, err := t.apic.GetProgress(ctx, t.courseKey)
	if err != nil {
		if api.IsForbidden(err) || api.IsUnauthorized(err) {
			// Expected state, not an error: the user is not enrolled.
			snap := types.NewSnapshot()
			snap.Enrolled = false
			t.writeSnapshot(snap)
			return nil
		}
		// Transient failure: keep showing last-known-good state.
		t.log.Warn("progress refresh failed", "error", err)
		return fmt.Errorf("refresh progress: %w", err)
	}

	// Server truth replaces local state wholesale; optimistic flags the
	// server rejected disappear here. Certificate fields ride along from
	// the previous snapshot since this endpoint does not carry them.
	t.mu.RLock()
	prev := t.snap
	t.mu.RUnlock()
	if prev != nil {
		fresh.CertCompleted = prev.CertCompleted
		fresh.CertCompletedAt = prev.CertCompletedAt
		if fresh.SpentMinutes == 0 {
			fresh.SpentMinutes = prev.SpentMinutes
		}
	}
	t.writeSnapshot(fresh)

	t.bus.Publish(ctx, bus.Message{Event: bus.EventProgressChanged, CourseKey: t.courseKey})
	return nil
}

// CompleteLesson marks a lesson done. Idempotent: an already-completed
// lesson is a no-op with zero network calls. The local update is applied
// before the POST; a failed POST keeps the optimistic state and the next
// refresh reconciles. With awaitRefresh the call returns only after a full
// refresh, for navigations whose gating depends on the new state.
func (t *Tracker) CompleteLesson(ctx context.Context, lessonID int, awaitRefresh bool) error {
	snap := t.Snapshot()
	if snap != nil && snap.CompletedLessonIDs[lessonID] {
		return nil
	}

	var next *types.Snapshot
	if snap != nil {
		next = snap.Clone()
	} else {
		next = types.NewSnapshot()
	}
	next.CompletedLessonIDs[lessonID] = true
	t.writeSnapshot(next)

	sendErr := t.apic.CompleteLesson(ctx, lessonID)
	if sendErr != nil {
		t.log.Warn("lesson completion post failed, keeping optimistic state",
			"lesson_id", lessonID, "error", sendErr)
	}

	t.store.MarkDirty(t.courseKey)
	t.bus.Publish(ctx, bus.Message{Event: bus.EventProgressDirty, CourseKey: t.courseKey})

	if awaitRefresh && sendErr == nil {
		if err := t.Refresh(ctx); err != nil {
			return err
		}
	}
	return sendErr
}

// Certificate returns the last fetched certificate, if any.
func (t *Tracker) Certificate() (types.Certificate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.cert == nil {
		return types.Certificate{}, false
	}
	return *t.cert, true
}

// RefreshCertificate asks the server whether the course certificate is
// earned. Guarded by its own in-flight flag. 403/404 mean "not earned yet".
func (t *Tracker) RefreshCertificate(ctx context.Context) (types.Certificate, error) {
	if !t.certBusy.CompareAndSwap(false, true) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		if t.cert != nil {
			return *t.cert, nil
		}
		return types.Certificate{}, nil
	}
	defer t.certBusy.Store(false)

	cert, err := t.apic.GetCertificate(ctx, t.courseKey)
	if err != nil {
		if api.IsForbidden(err) || api.IsNotFound(err) {
			return types.Certificate{}, nil
		}
		return types.Certificate{}, fmt.Errorf("refresh certificate: %w", err)
	}

	t.mu.Lock()
	t.cert = &cert
	snap := t.snap
	if snap != nil && cert.Completed {
		snap = snap.Clone()
		snap.CertCompleted = true
		snap.CertCompletedAt = cert.CompletedAt
		if cert.TimeSpentMinutes > 0 {
			snap.SpentMinutes = cert.TimeSpentMinutes
		}
		t.snap = snap
	}
	t.mu.Unlock()
	if snap != nil && cert.Completed {
		if err := t.cache.Write(t.cacheKey(), *snap); err != nil {
			t.log.Warn("progress cache write failed", "error", err)
		}
	}
	return cert, nil
}

// RecordResume persists the last-viewed position, locally always and
// remotely best-effort.
func (t *Tracker) RecordResume(ctx context.Context, unitID, lessonID int) {
	p := store.ResumePointer{UnitID: unitID, LessonID: lessonID}
	if err := t.store.PutResumePointer(t.userKey, t.courseKey, p); err != nil {
		t.log.Warn("resume pointer write failed", "error", err)
	}
	if err := t.apic.RecordResume(ctx, t.courseKey, unitID, lessonID); err != nil {
		t.log.Debug("resume post failed", "error", err)
	}
}

// ResumePointer returns the locally stored pointer, else the server-supplied
// last position from the snapshot.
func (t *Tracker) ResumePointer() (store.ResumePointer, bool) {
	if p, ok := t.store.ResumePointer(t.userKey, t.courseKey); ok {
		return p, true
	}
	snap := t.Snapshot()
	if snap != nil && snap.LastUnitID != 0 {
		return store.ResumePointer{UnitID: snap.LastUnitID, LessonID: snap.LastLessonID}, true
	}
	return store.ResumePointer{}, false
}

// Reset clears server-side progress, then the local mirror. The caller owns
// confirming this with the user; there is no undo.
func (t *Tracker) Reset(ctx context.Context, courseID int) error {
	if err := t.apic.ResetProgress(ctx, courseID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}

	t.mu.Lock()
	t.snap = nil
	t.cert = nil
	t.mu.Unlock()
	t.cache.Invalidate(t.cacheKey())
	_ = t.store.Delete(store.ResumeKey(t.userKey, t.courseKey))

	t.store.MarkDirty(t.courseKey)
	t.bus.Publish(ctx, bus.Message{Event: bus.EventProgressChanged, CourseKey: t.courseKey})
	return nil
}
