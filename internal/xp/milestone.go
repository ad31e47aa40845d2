package xp

// MilestoneSize is the fixed tier width for celebratory notifications.
const MilestoneSize = 500

// MilestoneFor returns the highest tier boundary at or below xp.
// MilestoneFor(499) == 0, MilestoneFor(500) == 500, MilestoneFor(1999) == 1500.
func MilestoneFor(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp / MilestoneSize * MilestoneSize
}

// Watermark decides which milestone, if any, to announce for a new XP
// balance given the last announced tier. Each tier is announced at most
// once; a jump across several tiers announces only the highest one.
type Watermark struct {
	lastShown int
}

func NewWatermark(lastShown int) *Watermark {
	if lastShown < 0 {
		lastShown = 0
	}
	return &Watermark{lastShown: lastShown}
}

// Advance returns the tier to announce for newXP, or 0 when there is
// nothing new to show, moving the watermark forward on announcement.
func (w *Watermark) Advance(newXP int) int {
	reached := MilestoneFor(newXP)
	if reached < MilestoneSize || reached <= w.lastShown {
		return 0
	}
	w.lastShown = reached
	return reached
}

// LastShown is the persisted value for the store watermark key.
func (w *Watermark) LastShown() int { return w.lastShown }
