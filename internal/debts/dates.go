package debts

import (
	"strconv"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
)

var clk = clock.New()

var (
	// ErrUnparseableDate means the input is neither a known keyword nor a
	// DD.MM.YYYY date.
	ErrUnparseableDate = errors.New("unparseable date")
	// ErrDateOutOfRange means the date parsed but lies outside
	// [today, today+365 days].
	ErrDateOutOfRange = errors.New("date out of range")
)

const (
	canonicalDateLayout = "2006:01:02"
	displayDateLayout   = "02.01.2006"

	maxDeadlineDays = 365
)

// Relative-date keywords offered on the deadline keyboard, as day offsets
// from today.
var deadlineKeywords = map[string]int{
	"Heute":       0,
	"Morgen":      1,
	"Eine Woche":  7,
	"Zwei Wochen": 14,
	"Ein Monat":   30,
	"3 Monate":    90,
}

// Deadline is a validated calendar date in both stored and shown forms.
type Deadline struct {
	Canonical string // YYYY:MM:DD, sortable
	Display   string // DD.MM.YYYY
}

// ParseDeadline validates a deadline entered during the new-debt flow.
// Accepted inputs are the relative keywords and explicit DD.MM.YYYY dates
// within the next year, today and today+365 days inclusive. The two failure
// modes are distinguishable so the dialog can re-prompt with a reason.
func ParseDeadline(input string) (Deadline, error) {
	today := midnight(clk.Now())

	if offset, ok := deadlineKeywords[input]; ok {
		return deadlineAt(today.AddDate(0, 0, offset)), nil
	}

	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return Deadline{}, errors.Wrapf(ErrUnparseableDate, "%q", input)
	}

	day, err := atoiLimited(parts[0], 2)
	if err != nil {
		return Deadline{}, errors.Wrapf(ErrUnparseableDate, "%q", input)
	}
	month, err := atoiLimited(parts[1], 2)
	if err != nil {
		return Deadline{}, errors.Wrapf(ErrUnparseableDate, "%q", input)
	}
	year, err := atoiLimited(parts[2], 4)
	if err != nil || len(parts[2]) != 4 {
		return Deadline{}, errors.Wrapf(ErrUnparseableDate, "%q", input)
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
	// time.Date normalizes out-of-range components (15.13. becomes January),
	// so an inexact round-trip means the input was not a real calendar date.
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return Deadline{}, errors.Wrapf(ErrUnparseableDate, "%q", input)
	}

	if date.Before(today) || date.After(today.AddDate(0, 0, maxDeadlineDays)) {
		return Deadline{}, errors.Wrapf(ErrDateOutOfRange, "%q", input)
	}

	return deadlineAt(date), nil
}

func deadlineAt(date time.Time) Deadline {
	return Deadline{
		Canonical: date.Format(canonicalDateLayout),
		Display:   date.Format(displayDateLayout),
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atoiLimited(s string, maxDigits int) (int, error) {
	if s == "" || len(s) > maxDigits {
		return 0, errors.Errorf("not a %d-digit number: %q", maxDigits, s)
	}
	return strconv.Atoi(s)
}
