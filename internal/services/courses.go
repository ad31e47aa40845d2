package services

import (
	"context"
	"fmt"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/cache"
	"github.com/yungbote/learnbridge/internal/optimistic"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/progress"
	"github.com/yungbote/learnbridge/internal/store"
	"github.com/yungbote/learnbridge/internal/types"
)

// CourseService serves the catalog and the "my learning" list with the
// instant-cache-then-background-refresh read path, plus enrollment and the
// optimistic save/favourite toggles.
type CourseService interface {
	List(ctx context.Context) ([]types.Course, error)
	Detail(ctx context.Context, slug string) (types.Course, error)
	CachedDetail(slug string) (types.Course, bool)
	MyLearning(ctx context.Context) ([]types.Course, error)
	CachedMyLearning() ([]types.Course, bool)
	Enroll(ctx context.Context, course types.Course) error
	ToggleSaved(ctx context.Context, course *types.Course) error
	ToggleFavourite(ctx context.Context, course *types.Course) error
	ContinueLearning(ctx context.Context, slug string) (progress.Route, error)
}

type courseService struct {
	store    *store.Store
	apic     *api.Client
	bus      *bus.Bus
	session  SessionService
	progress ProgressService
	log      *logger.Logger

	detailCache *cache.Cache[types.Course]
	listCache   *cache.Cache[[]types.Course]
}

func NewCourseService(st *store.Store, apic *api.Client, b *bus.Bus, session SessionService, ps ProgressService, log *logger.Logger) CourseService {
	svcLog := log.With("service", "CourseService")
	return &courseService{
		store:       st,
		apic:        apic,
		bus:         b,
		session:     session,
		progress:    ps,
		log:         svcLog,
		detailCache: cache.New[types.Course](st, svcLog, cache.TTLCourseDetail),
		listCache:   cache.New[[]types.Course](st, svcLog, cache.TTLMyLearning),
	}
}

func (s *courseService) List(ctx context.Context) ([]types.Course, error) {
	courses, err := s.apic.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CachedDetail is the synchronous read path: last-known-good course detail
// or a miss, never a network call.
func (s *courseService) CachedDetail(slug string) (types.Course, bool) {
	return s.detailCache.Read(store.CourseDetailKey(slug))
}

func (s *courseService) Detail(ctx context.Context, slug string) (types.Course, error) {
	course, err := s.apic.GetCourse(ctx, slug)
	if err != nil {
		// Degrade to the cached copy on transient failure.
		if cached, ok := s.CachedDetail(slug); ok {
			s.log.Warn("course detail refresh failed, serving cache", "slug", slug, "error", err)
			return cached, nil
		}
		return types.Course{}, fmt.Errorf("course detail %q: %w", slug, err)
	}
	if err := s.detailCache.Write(store.CourseDetailKey(slug), course); err != nil {
		s.log.Warn("course detail cache write failed", "slug", slug, "error", err)
	}
	s.bus.Publish(ctx, bus.Message{Event: bus.EventDashboardCacheUpdate, CourseKey: slug})
	return course, nil
}

func (s *courseService) myLearningKey() string {
	return store.MyLearningKey(s.session.UserKey())
}

func (s *courseService) CachedMyLearning() ([]types.Course, bool) {
	return s.listCache.Read(s.myLearningKey())
}

func (s *courseService) MyLearning(ctx context.Context) ([]types.Course, error) {
	courses, err := s.apic.MyCourses(ctx)
	if err != nil {
		if cached, ok := s.CachedMyLearning(); ok {
			s.log.Warn("my learning refresh failed, serving cache", "error", err)
			return cached, nil
		}
		return nil, fmt.Errorf("my learning: %w", err)
	}
	if err := s.listCache.Write(s.myLearningKey(), courses); err != nil {
		s.log.Warn("my learning cache write failed", "error", err)
	}
	return courses, nil
}

func (s *courseService) Enroll(ctx context.Context, course types.Course) error {
	if err := s.apic.Enroll(ctx, course.ID); err != nil {
		return fmt.Errorf("enroll in %q: %w", course.Slug, err)
	}
	s.listCache.Invalidate(s.myLearningKey())
	s.bus.Publish(ctx, bus.Message{Event: bus.EventCoursesChanged, CourseKey: course.Slug})
	return nil
}

// ToggleSaved flips the saved flag optimistically and reverts on failure.
func (s *courseService) ToggleSaved(ctx context.Context, course *types.Course) error {
	target := !course.IsSaved
	return optimistic.Run(ctx, s.log, optimistic.Command{
		Name:  "save_course",
		Apply: func() { course.IsSaved = target },
		Send: func(ctx context.Context) error {
			return s.apic.SaveCourse(ctx, course.Slug, target)
		},
		Rollback: func() { course.IsSaved = !target },
	})
}

func (s *courseService) ToggleFavourite(ctx context.Context, course *types.Course) error {
	target := !course.IsFavourite
	return optimistic.Run(ctx, s.log, optimistic.Command{
		Name:  "favourite_course",
		Apply: func() { course.IsFavourite = target },
		Send: func(ctx context.Context) error {
			return s.apic.FavouriteCourse(ctx, course.Slug, target)
		},
		Rollback: func() { course.IsFavourite = !target },
	})
}

// ContinueLearning computes the next activity for a course: cached detail
// when fresh, else fetched; snapshot through the shared tracker so every
// continue button and redirect guard resolves identically.
func (s *courseService) ContinueLearning(ctx context.Context, slug string) (progress.Route, error) {
	course, ok := s.CachedDetail(slug)
	if !ok {
		var err error
		course, err = s.Detail(ctx, slug)
		if err != nil {
			return progress.Route{}, err
		}
	}

	tracker := s.progress.Tracker(slug)
	snap := tracker.Snapshot()
	if snap == nil {
		if err := tracker.Refresh(ctx); err != nil {
			s.log.Warn("continue learning with no snapshot", "slug", slug, "error", err)
		}
		snap = tracker.Snapshot()
	}
	return progress.ResolveNext(course.Units, snap), nil
}
