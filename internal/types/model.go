package types

import "time"

// Text is a bilingual string pair. The platform serves every title and body
// in both languages and the active one is chosen at render time.
type Text struct {
	En string `json:"en"`
	Fr string `json:"fr"`
}

// In returns the string for lang ("fr" or anything else meaning English),
// falling back to the other language when the requested one is empty.
func (t Text) In(lang string) string {
	if lang == "fr" {
		if t.Fr != "" {
			return t.Fr
		}
		return t.En
	}
	if t.En != "" {
		return t.En
	}
	return t.Fr
}

type Lesson struct {
	ID       int  `json:"id"`
	Position int  `json:"position"`
	Title    Text `json:"title"`
	Content  Text `json:"content"`
}

type Unit struct {
	ID        int      `json:"id"`
	Position  int      `json:"position"`
	Title     Text     `json:"title"`
	Lessons   []Lesson `json:"lessons"`
	HasCoding bool     `json:"has_coding"`
	QCMCount  int      `json:"qcm_count"`
}

type Course struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Title       Text   `json:"title"`
	Description Text   `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Units       []Unit `json:"units"`

	// List-endpoint extras; zero-valued on detail responses that omit them.
	LessonCount int  `json:"lesson_count"`
	IsSaved     bool `json:"is_saved"`
	IsFavourite bool `json:"is_favourite"`
}

// UnitState mirrors the server's per-unit progress record.
type UnitState struct {
	Completed       bool `json:"completed"`
	CodingCompleted bool `json:"coding_completed"`
	QuizPassed      bool `json:"quiz_passed"`
}

// Snapshot is the locally cached mirror of server-side progress for one
// (user, course) pair. It is a cache, never the source of truth.
type Snapshot struct {
	Enrolled           bool              `json:"enrolled"`
	CompletedLessonIDs map[int]bool      `json:"completed_lesson_ids"`
	UnitProgress       map[int]UnitState `json:"unit_progress"`
	CertCompleted      bool              `json:"cert_completed"`
	CertCompletedAt    *time.Time        `json:"cert_completed_at,omitempty"`
	SpentMinutes       int               `json:"spent_minutes"`
	LastUnitID         int               `json:"last_unit_id,omitempty"`
	LastLessonID       int               `json:"last_lesson_id,omitempty"`
}

// NewSnapshot returns an empty enrolled snapshot with allocated maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Enrolled:           true,
		CompletedLessonIDs: map[int]bool{},
		UnitProgress:       map[int]UnitState{},
	}
}

// Clone returns a deep copy so optimistic mutation never aliases cached state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.CompletedLessonIDs = make(map[int]bool, len(s.CompletedLessonIDs))
	for k, v := range s.CompletedLessonIDs {
		out.CompletedLessonIDs[k] = v
	}
	out.UnitProgress = make(map[int]UnitState, len(s.UnitProgress))
	for k, v := range s.UnitProgress {
		out.UnitProgress[k] = v
	}
	if s.CertCompletedAt != nil {
		at := *s.CertCompletedAt
		out.CertCompletedAt = &at
	}
	return &out
}

type Certificate struct {
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	CourseTitle      string     `json:"course_title"`
}

type XPTransaction struct {
	ID        int       `json:"id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type XPMilestone struct {
	ID        int  `json:"id"`
	Threshold int  `json:"threshold"`
	Seen      bool `json:"seen"`
}

type AvatarItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Price    int    `json:"price"`
	Owned    bool   `json:"owned"`
	Equipped bool   `json:"equipped"`
}

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	XP    int    `json:"xp"`
}
