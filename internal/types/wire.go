package types

import "time"

// Wire shapes as the backend actually sends them, alternate field names
// included. Nothing outside this package should touch these; decode.go is
// the single normalization boundary.

type WireText struct {
	En string `json:"en,omitempty"`
	Fr string `json:"fr,omitempty"`
}

type WireLesson struct {
	ID       int       `json:"id"`
	Position int       `json:"position"`
	Order    int       `json:"order,omitempty"`
	TitleEn  string    `json:"title_en,omitempty"`
	TitleFr  string    `json:"title_fr,omitempty"`
	Title    *WireText `json:"title,omitempty"`
	BodyEn   string    `json:"content_en,omitempty"`
	BodyFr   string    `json:"content_fr,omitempty"`
	Body     *WireText `json:"content,omitempty"`
}

type WireCodingExercise struct {
	ID int `json:"id"`
}

type WireUnit struct {
	ID             int                 `json:"id"`
	Position       int                 `json:"position"`
	Order          int                 `json:"order,omitempty"`
	TitleEn        string              `json:"title_en,omitempty"`
	TitleFr        string              `json:"title_fr,omitempty"`
	Title          *WireText           `json:"title,omitempty"`
	Lessons        []WireLesson        `json:"lessons"`
	CodingExercise *WireCodingExercise `json:"coding_exercise,omitempty"`
	HasCoding      bool                `json:"has_coding,omitempty"`
	QCMCount       int                 `json:"qcm_count"`
}

type WireCourse struct {
	ID            int        `json:"id"`
	Slug          string     `json:"slug"`
	TitleEn       string     `json:"title_en,omitempty"`
	TitleFr       string     `json:"title_fr,omitempty"`
	Title         *WireText  `json:"title,omitempty"`
	DescriptionEn string     `json:"description_en,omitempty"`
	DescriptionFr string     `json:"description_fr,omitempty"`
	Description   *WireText  `json:"description,omitempty"`
	Thumbnail     string     `json:"thumbnail,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	Units         []WireUnit `json:"units,omitempty"`
	LessonCount   int        `json:"lesson_count,omitempty"`
	LessonsCount  int        `json:"lessons_count,omitempty"`
	IsSaved       bool       `json:"is_saved,omitempty"`
	IsFavourite   bool       `json:"is_favourite,omitempty"`
}

type WireUnitState struct {
	Completed       bool `json:"completed"`
	CodingCompleted bool `json:"coding_completed"`
	QuizPassed      bool `json:"quiz_passed"`
}

type WireProgress struct {
	CompletedLessonIDs []int                 `json:"completed_lesson_ids"`
	UnitProgress       map[int]WireUnitState `json:"unit_progress"`
	LastUnitID         int                   `json:"last_unit_id,omitempty"`
	LastLessonID       int                   `json:"last_lesson_id,omitempty"`
	SpentMinutes       int                   `json:"spent_minutes,omitempty"`
}

type WireCertificate struct {
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	CourseTitle      string     `json:"course_title"`
}

type WireXPTransaction struct {
	ID        int       `json:"id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type WireXPMilestone struct {
	ID        int  `json:"id"`
	Threshold int  `json:"threshold"`
	Seen      bool `json:"seen"`
}

type WireAvatarItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Image     string `json:"image,omitempty"`
	Price     int    `json:"price"`
	Owned     bool   `json:"owned,omitempty"`
	Purchased bool   `json:"purchased,omitempty"`
	Equipped  bool   `json:"equipped,omitempty"`
}

type WireUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	XP    int    `json:"xp,omitempty"`
	XPAlt int    `json:"experience_points,omitempty"`
}
