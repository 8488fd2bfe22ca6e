package schedule

import (
	"fmt"
	"time"
)

// ShiftType mirrors the roster's shift kinds.
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftCustom    ShiftType = "custom"
	ShiftSplit     ShiftType = "split"
)

// WorkShift is a practitioner's declared working time on one date.
type WorkShift struct {
	PractitionerID int64     `json:"practitioner_id"`
	Date           time.Time `json:"date"`
	Type           ShiftType `json:"type"`
	Primary        Interval  `json:"primary"`
	Secondary      *Interval `json:"secondary,omitempty"`
}

// Intervals returns the working intervals in chronological order.
func (s WorkShift) Intervals() []Interval {
	if s.Secondary == nil {
		return []Interval{s.Primary}
	}
	return []Interval{s.Primary, *s.Secondary}
}

// Validate enforces interval ordering: each interval is non-empty, and a
// secondary interval only exists on split shifts and starts after the primary ends.
func (s WorkShift) Validate() error {
	if s.Primary.End <= s.Primary.Start {
		return fmt.Errorf("%w: primary %s is empty", ErrInvalidShift, s.Primary)
	}
	if s.Primary.End > MinutesPerDay {
		return fmt.Errorf("%w: primary %s ends after midnight", ErrInvalidShift, s.Primary)
	}
	if s.Secondary == nil {
		return nil
	}
	if s.Type != ShiftSplit {
		return fmt.Errorf("%w: secondary interval on %q shift", ErrInvalidShift, s.Type)
	}
	sec := *s.Secondary
	if sec.End <= sec.Start || sec.End > MinutesPerDay {
		return fmt.Errorf("%w: secondary %s is empty", ErrInvalidShift, sec)
	}
	if sec.Start <= s.Primary.End {
		return fmt.Errorf("%w: secondary %s must start after primary %s", ErrInvalidShift, sec, s.Primary)
	}
	return nil
}
