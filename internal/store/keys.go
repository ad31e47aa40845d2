package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key layout. Everything per-user is prefixed with the resolved user key so
// logout can clear one user's state without touching another profile on the
// same machine.

const (
	keySessionToken = "session/token"
	keySessionUser  = "session/user"
	keyEmailHistory = "session/email_history"

	keyDirtyFlag   = "sync/dirty"
	keyDirtyCourse = "sync/dirty_course"
)

func ProgressKey(userKey, courseKey string) string {
	return fmt.Sprintf("progress/%s/%s", userKey, courseKey)
}

func CourseDetailKey(courseKey string) string {
	return "course/" + courseKey
}

func MyLearningKey(userKey string) string {
	return "mylearning/" + userKey
}

func ResumeKey(userKey, courseKey string) string {
	return fmt.Sprintf("resume/%s/%s", userKey, courseKey)
}

func MilestoneWatermarkKey(userKey string) string {
	return "xp/watermark/" + userKey
}

func UserPrefix(userKey string) []string {
	return []string{
		"progress/" + userKey + "/",
		"mylearning/" + userKey,
		"resume/" + userKey + "/",
		"xp/watermark/" + userKey,
	}
}

// --- session ---

func (s *Store) SessionToken() string {
	raw, _, ok := s.Get(keySessionToken)
	if !ok {
		return ""
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return ""
	}
	return token
}

func (s *Store) PutSessionToken(token string) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.Put(keySessionToken, raw)
}

func (s *Store) SessionUser() ([]byte, bool) {
	raw, _, ok := s.Get(keySessionUser)
	return raw, ok
}

func (s *Store) PutSessionUser(raw []byte) error {
	return s.Put(keySessionUser, raw)
}

// ClearSession drops the token and user payload. Per-user caches are cleared
// separately by the session service, which knows the user key.
func (s *Store) ClearSession() {
	_ = s.Delete(keySessionToken)
	_ = s.Delete(keySessionUser)
}

// --- email history ---

const emailHistoryMax = 10

// RecordEmail keeps the most recent emailHistoryMax login emails,
// deduplicated, most recent first.
func (s *Store) RecordEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	history := s.EmailHistory()
	out := make([]string, 0, len(history)+1)
	out = append(out, email)
	for _, e := range history {
		if e != email {
			out = append(out, e)
		}
	}
	if len(out) > emailHistoryMax {
		out = out[:emailHistoryMax]
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return s.Put(keyEmailHistory, raw)
}

func (s *Store) EmailHistory() []string {
	raw, _, ok := s.Get(keyEmailHistory)
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// --- dirty flag protocol ---

// MarkDirty records that courseKey's progress changed somewhere and every
// other consumer should refresh before trusting its cache.
func (s *Store) MarkDirty(courseKey string) {
	if err := s.Put(keyDirtyFlag, []byte("true")); err != nil {
		s.log.Warn("mark dirty failed", "error", err)
		return
	}
	raw, _ := json.Marshal(courseKey)
	if err := s.Put(keyDirtyCourse, raw); err != nil {
		s.log.Warn("mark dirty course failed", "error", err)
	}
}

// DirtyCourse returns the pending dirty course key, if any.
func (s *Store) DirtyCourse() (string, bool) {
	raw, _, ok := s.Get(keyDirtyFlag)
	if !ok || string(raw) != "true" {
		return "", false
	}
	rawCourse, _, ok := s.Get(keyDirtyCourse)
	if !ok {
		return "", true
	}
	var course string
	if err := json.Unmarshal(rawCourse, &course); err != nil {
		return "", true
	}
	return course, true
}

func (s *Store) ClearDirty() {
	_ = s.Delete(keyDirtyFlag)
	_ = s.Delete(keyDirtyCourse)
}

// --- milestone watermark ---

func (s *Store) MilestoneWatermark(userKey string) int {
	raw, _, ok := s.Get(MilestoneWatermarkKey(userKey))
	if !ok {
		return 0
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

func (s *Store) PutMilestoneWatermark(userKey string, v int) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(MilestoneWatermarkKey(userKey), raw)
}

// --- resume pointer ---

type ResumePointer struct {
	UnitID   int `json:"unit_id"`
	LessonID int `json:"lesson_id"`
}

func (s *Store) ResumePointer(userKey, courseKey string) (ResumePointer, bool) {
	raw, _, ok := s.Get(ResumeKey(userKey, courseKey))
	if !ok {
		return ResumePointer{}, false
	}
	var p ResumePointer
	if err := json.Unmarshal(raw, &p); err != nil {
		return ResumePointer{}, false
	}
	return p, true
}

func (s *Store) PutResumePointer(userKey, courseKey string, p ResumePointer) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Put(ResumeKey(userKey, courseKey), raw)
}
