package types

import "sort"

// Decoders: one per entity, probing the alternate field spellings exactly
// once so the rest of the module only ever sees the canonical shape.

func decodeText(flat *WireText, en, fr string) Text {
	out := Text{En: en, Fr: fr}
	if flat != nil {
		if out.En == "" {
			out.En = flat.En
		}
		if out.Fr == "" {
			out.Fr = flat.Fr
		}
	}
	return out
}

func position(pos, order, fallback int) int {
	if pos > 0 {
		return pos
	}
	if order > 0 {
		return order
	}
	return fallback
}

func DecodeLesson(w WireLesson, idx int) Lesson {
	return Lesson{
		ID:       w.ID,
		Position: position(w.Position, w.Order, idx+1),
		Title:    decodeText(w.Title, w.TitleEn, w.TitleFr),
		Content:  decodeText(w.Body, w.BodyEn, w.BodyFr),
	}
}

func DecodeUnit(w WireUnit, idx int) Unit {
	u := Unit{
		ID:        w.ID,
		Position:  position(w.Position, w.Order, idx+1),
		Title:     decodeText(w.Title, w.TitleEn, w.TitleFr),
		HasCoding: w.HasCoding || w.CodingExercise != nil,
		QCMCount:  w.QCMCount,
	}
	u.Lessons = make([]Lesson, 0, len(w.Lessons))
	for i, wl := range w.Lessons {
		u.Lessons = append(u.Lessons, DecodeLesson(wl, i))
	}
	sort.SliceStable(u.Lessons, func(i, j int) bool {
		return u.Lessons[i].Position < u.Lessons[j].Position
	})
	return u
}

func DecodeCourse(w WireCourse) Course {
	c := Course{
		ID:          w.ID,
		Slug:        w.Slug,
		Title:       decodeText(w.Title, w.TitleEn, w.TitleFr),
		Description: decodeText(w.Description, w.DescriptionEn, w.DescriptionFr),
		Thumbnail:   w.Thumbnail,
		IsSaved:     w.IsSaved,
		IsFavourite: w.IsFavourite,
		LessonCount: w.LessonCount,
	}
	if c.Thumbnail == "" {
		c.Thumbnail = w.ThumbnailURL
	}
	if c.LessonCount == 0 {
		c.LessonCount = w.LessonsCount
	}
	c.Units = make([]Unit, 0, len(w.Units))
	for i, wu := range w.Units {
		c.Units = append(c.Units, DecodeUnit(wu, i))
	}
	sort.SliceStable(c.Units, func(i, j int) bool {
		return c.Units[i].Position < c.Units[j].Position
	})
	return c
}

func DecodeCourses(ws []WireCourse) []Course {
	out := make([]Course, 0, len(ws))
	for _, w := range ws {
		out = append(out, DecodeCourse(w))
	}
	return out
}

// DecodeProgress folds a progress response into an enrolled snapshot.
func DecodeProgress(w WireProgress) *Snapshot {
	s := NewSnapshot()
	for _, id := range w.CompletedLessonIDs {
		s.CompletedLessonIDs[id] = true
	}
	for id, st := range w.UnitProgress {
		s.UnitProgress[id] = UnitState{
			Completed:       st.Completed,
			CodingCompleted: st.CodingCompleted,
			QuizPassed:      st.QuizPassed,
		}
	}
	s.LastUnitID = w.LastUnitID
	s.LastLessonID = w.LastLessonID
	s.SpentMinutes = w.SpentMinutes
	return s
}

func DecodeCertificate(w WireCertificate) Certificate {
	return Certificate{
		Completed:        w.Completed,
		CompletedAt:      w.CompletedAt,
		TimeSpentMinutes: w.TimeSpentMinutes,
		CourseTitle:      w.CourseTitle,
	}
}

func DecodeXPTransaction(w WireXPTransaction) XPTransaction {
	reason := w.Reason
	if reason == "" {
		reason = w.Label
	}
	return XPTransaction{ID: w.ID, Amount: w.Amount, Reason: reason, CreatedAt: w.CreatedAt}
}

func DecodeXPMilestone(w WireXPMilestone) XPMilestone {
	return XPMilestone{ID: w.ID, Threshold: w.Threshold, Seen: w.Seen}
}

func DecodeAvatarItem(w WireAvatarItem) AvatarItem {
	img := w.ImageURL
	if img == "" {
		img = w.Image
	}
	return AvatarItem{
		ID:       w.ID,
		Name:     w.Name,
		ImageURL: img,
		Price:    w.Price,
		Owned:    w.Owned || w.Purchased,
		Equipped: w.Equipped,
	}
}

func DecodeUser(w WireUser) User {
	xp := w.XP
	if xp == 0 {
		xp = w.XPAlt
	}
	return User{ID: w.ID, Name: w.Name, Email: w.Email, XP: xp}
}
