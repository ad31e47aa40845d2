package progress

import "github.com/yungbote/learnbridge/internal/types"

type RouteKind string

const (
	RouteLesson RouteKind = "lesson"
	RouteCoding RouteKind = "coding"
	RouteQuiz   RouteKind = "quiz"
	RouteCourse RouteKind = "course"
)

// Route is the single next learning activity for a course. Kind RouteCourse
// means everything is done and the course overview (with the certificate)
// is the destination.
type Route struct {
	Kind     RouteKind `json:"kind"`
	UnitID   int       `json:"unit_id,omitempty"`
	LessonID int       `json:"lesson_id,omitempty"`
}

// ResolveNext walks the unit tree against the snapshot and returns the one
// activity the learner should do next. Deterministic: every caller
// (continue buttons, lesson-page redirect guard) goes through this function.
func ResolveNext(units []types.Unit, s *types.Snapshot) Route {
	for i, u := range units {
		// Snapshots can claim a later unit is reachable while an earlier
		// one is not actually finished (stale cache, partial server data).
		// Resolve inside the previous unit before looking at this one.
		if i > 0 && !IsUnitCompleted(s, units[i-1]) {
			return resolveWithin(units[i-1], s)
		}
		if r, ok := nextWithin(u, s); ok {
			return r
		}
	}
	return Route{Kind: RouteCourse}
}

// nextWithin returns the next pending activity in u, or ok=false when the
// unit is fully satisfied. A server-reported completed flag satisfies the
// whole unit even when individual lesson flags are missing.
func nextWithin(u types.Unit, s *types.Snapshot) (Route, bool) {
	if s != nil && s.UnitProgress[u.ID].Completed {
		return Route{}, false
	}
	for _, l := range u.Lessons {
		if !IsLessonCompleted(s, l.ID) {
			return Route{Kind: RouteLesson, UnitID: u.ID, LessonID: l.ID}, true
		}
	}
	if u.HasCoding && !IsCodingCompleted(s, u.ID) {
		return Route{Kind: RouteCoding, UnitID: u.ID}, true
	}
	if u.QCMCount > 0 && !IsQuizPassed(s, u.ID) {
		return Route{Kind: RouteQuiz, UnitID: u.ID}, true
	}
	return Route{}, false
}

// resolveWithin is nextWithin with a first-lesson fallback for units whose
// steps all read completed yet the unit still gates closed.
func resolveWithin(u types.Unit, s *types.Snapshot) Route {
	if r, ok := nextWithin(u, s); ok {
		return r
	}
	if len(u.Lessons) > 0 {
		return Route{Kind: RouteLesson, UnitID: u.ID, LessonID: u.Lessons[0].ID}
	}
	return Route{Kind: RouteCourse}
}
