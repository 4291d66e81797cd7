package domain

import (
	"fmt"
	"strings"
	"time"
)

// RepeatRule enumerates supported recurrence rules.
type RepeatRule string

const (
	RepeatNone    RepeatRule = "NONE"
	RepeatDaily   RepeatRule = "DAILY"
	RepeatWeekly  RepeatRule = "WEEKLY"
	RepeatMonthly RepeatRule = "MONTHLY"
	RepeatYearly  RepeatRule = "YEARLY"
)

// ParseRepeatRule normalizes and validates a repeat rule value.
func ParseRepeatRule(raw string) (RepeatRule, error) {
	rule := RepeatRule(strings.ToUpper(strings.TrimSpace(raw)))
	switch rule {
	case "":
		return RepeatNone, nil
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return rule, nil
	default:
		return "", fmt.Errorf("unknown repeat rule %q", raw)
	}
}

// Repeats reports whether the rule produces further occurrences.
func (r RepeatRule) Repeats() bool {
	return r != "" && r != RepeatNone
}

// Advance returns the occurrence following from, one repeat period later.
// Monthly and yearly arithmetic follows time.AddDate normalization.
func (r RepeatRule) Advance(from time.Time, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch r {
	case RepeatDaily:
		return from.AddDate(0, 0, interval)
	case RepeatWeekly:
		return from.AddDate(0, 0, 7*interval)
	case RepeatMonthly:
		return from.AddDate(0, interval, 0)
	case RepeatYearly:
		return from.AddDate(interval, 0, 0)
	default:
		return from
	}
}

// Reminder mirrors the persisted representation in the reminders table.
type Reminder struct {
	ID          int64
	UserID      int64
	Title       string
	Description string

	ScheduledAt    time.Time
	RepeatRule     RepeatRule
	RepeatInterval int

	IsActive   bool
	LastSentAt *time.Time
	NextRunAt  time.Time

	Channels       []string
	RecipientEmail *string
	ReminderType   string
	MediaPaths     []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DueAt reports whether the reminder should be dispatched at the given instant.
func (r *Reminder) DueAt(now time.Time) bool {
	return r.IsActive && !r.NextRunAt.After(now)
}

// NextAfterCompletion computes the run time following a completed occurrence.
// Repeating reminders advance from the previous NextRunAt rather than from
// now, so a late acknowledgement does not drift the schedule. The boolean is
// false when the rule does not repeat and NextRunAt must stay untouched.
func NextAfterCompletion(next time.Time, rule RepeatRule, interval int) (time.Time, bool) {
	if !rule.Repeats() {
		return next, false
	}
	return rule.Advance(next, interval), true
}

// SnoozedRunTime pushes the run time out by delay. A past-due reminder is
// rebased on now first, so snoozing always lands in the future.
func SnoozedRunTime(next, now time.Time, delay time.Duration) time.Time {
	base := next
	if now.After(base) {
		base = now
	}
	return base.Add(delay)
}
