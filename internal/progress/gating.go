package progress

import "github.com/yungbote/learnbridge/internal/types"

// Gating predicates are pure functions over (units, snapshot). They decide
// synchronously whether a learning activity is unlocked, so navigation never
// waits on the network. Out-of-range indices always gate closed.

func IsLessonCompleted(s *types.Snapshot, lessonID int) bool {
	if s == nil {
		return false
	}
	return s.CompletedLessonIDs[lessonID]
}

func IsCodingCompleted(s *types.Snapshot, unitID int) bool {
	if s == nil {
		return false
	}
	return s.UnitProgress[unitID].CodingCompleted
}

func IsQuizPassed(s *types.Snapshot, unitID int) bool {
	if s == nil {
		return false
	}
	return s.UnitProgress[unitID].QuizPassed
}

// IsUnitCompleted is true when every step of the unit is done: all lessons,
// the coding exercise when the unit has one, and the quiz when qcm_count > 0.
// A server-reported completed flag for the unit is accepted as an override.
func IsUnitCompleted(s *types.Snapshot, u types.Unit) bool {
	if s == nil {
		return false
	}
	if s.UnitProgress[u.ID].Completed {
		return true
	}
	if !allLessonsCompleted(s, u) {
		return false
	}
	if u.HasCoding && !IsCodingCompleted(s, u.ID) {
		return false
	}
	if u.QCMCount > 0 && !IsQuizPassed(s, u.ID) {
		return false
	}
	return true
}

func allLessonsCompleted(s *types.Snapshot, u types.Unit) bool {
	for _, l := range u.Lessons {
		if !s.CompletedLessonIDs[l.ID] {
			return false
		}
	}
	return true
}

// CanOpenUnit: the first unit is always open; any later unit opens only once
// the immediately preceding unit is fully completed.
func CanOpenUnit(units []types.Unit, s *types.Snapshot, index int) bool {
	if index < 0 || index >= len(units) {
		return false
	}
	if index == 0 {
		return true
	}
	return IsUnitCompleted(s, units[index-1])
}

// CanOpenLesson: the unit must be open and the lesson must be first in its
// unit or preceded by a completed lesson.
func CanOpenLesson(units []types.Unit, s *types.Snapshot, unitIndex, lessonIndex int) bool {
	if !CanOpenUnit(units, s, unitIndex) {
		return false
	}
	u := units[unitIndex]
	if lessonIndex < 0 || lessonIndex >= len(u.Lessons) {
		return false
	}
	if lessonIndex == 0 {
		return true
	}
	return IsLessonCompleted(s, u.Lessons[lessonIndex-1].ID)
}

// CanOpenCoding: unit open and every lesson in it completed.
func CanOpenCoding(units []types.Unit, s *types.Snapshot, unitIndex int) bool {
	if !CanOpenUnit(units, s, unitIndex) {
		return false
	}
	return s != nil && allLessonsCompleted(s, units[unitIndex])
}

// CanOpenQuiz: unit open, every lesson completed, and the coding exercise
// (when the unit has one) completed.
func CanOpenQuiz(units []types.Unit, s *types.Snapshot, unitIndex int) bool {
	if !CanOpenCoding(units, s, unitIndex) {
		return false
	}
	u := units[unitIndex]
	if u.HasCoding && !IsCodingCompleted(s, u.ID) {
		return false
	}
	return true
}

// StepsDone / StepsTotal give the completion ratio used for progress bars
// and the certificate affordance. A step is a lesson, a coding exercise, or
// a quiz.
func StepsTotal(units []types.Unit) int {
	total := 0
	for _, u := range units {
		total += len(u.Lessons)
		if u.HasCoding {
			total++
		}
		if u.QCMCount > 0 {
			total++
		}
	}
	return total
}

func StepsDone(units []types.Unit, s *types.Snapshot) int {
	if s == nil {
		return 0
	}
	done := 0
	for _, u := range units {
		for _, l := range u.Lessons {
			if s.CompletedLessonIDs[l.ID] {
				done++
			}
		}
		if u.HasCoding && IsCodingCompleted(s, u.ID) {
			done++
		}
		if u.QCMCount > 0 && IsQuizPassed(s, u.ID) {
			done++
		}
	}
	return done
}

// AllStepsDone reports 100% completion across every unit; the certificate
// affordance additionally requires server confirmation.
func AllStepsDone(units []types.Unit, s *types.Snapshot) bool {
	if len(units) == 0 {
		return false
	}
	for _, u := range units {
		if !IsUnitCompleted(s, u) {
			return false
		}
	}
	return true
}
