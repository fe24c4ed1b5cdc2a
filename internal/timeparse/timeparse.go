package timeparse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Callers speak times, the assistant relays them as free text, and this
// package turns them into canonical 24-hour clock values.
//
// Supported forms:
// - "15:45", "7:30", "7.30"
// - "7", "7am", "7:30pm", "7.30 pm"
// - "quarter to 4", "quarter past 9", "half past 7", "ten to 5", "20 past 8"
// - "noon", "midday", "midnight"
//
// Spans are same-day only. An end at or before the start is a validation
// failure, never an implicit next-day rollover.

var (
	ErrUnparseable  = errors.New("timeparse: unparseable time")
	ErrInvalidRange = errors.New("timeparse: end must be after start")
)

// Clock is a canonical 24-hour clock value.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

var (
	reClock    = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
	reBareHour = regexp.MustCompile(`^(\d{1,2})$`)
	reRelative = regexp.MustCompile(`^(quarter|half|twenty five|twenty-five|twenty|ten|five|\d{1,2})\s+(past|to|till|before|after)\s+(\d{1,2})$`)
)

var wordMinutes = map[string]int{
	"five":        5,
	"ten":         10,
	"quarter":     15,
	"twenty":      20,
	"twenty five": 25,
	"twenty-five": 25,
	"half":        30,
}

// ParseClock parses a colloquial time expression into a Clock.
func ParseClock(text string) (Clock, error) {
	s := normalize(text)
	if s == "" {
		return Clock{}, ErrUnparseable
	}

	switch s {
	case "noon", "midday", "12 noon":
		return Clock{Hour: 12}, nil
	case "midnight":
		return Clock{}, nil
	}

	s, meridiem := splitMeridiem(s)

	if m := reClock.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return buildClock(hour, minute, meridiem)
	}

	if m := reBareHour.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return buildClock(hour, 0, meridiem)
	}

	if m := reRelative.FindStringSubmatch(s); m != nil {
		minute, err := relativeMinutes(m[1])
		if err != nil {
			return Clock{}, err
		}
		hour, _ := strconv.Atoi(m[3])
		switch m[2] {
		case "past", "after":
			if minute == 30 || minute < 30 {
				return buildClock(hour, minute, meridiem)
			}
			return Clock{}, ErrUnparseable
		default: // to, till, before
			if minute == 30 {
				// "half to" is not a thing callers say.
				return Clock{}, ErrUnparseable
			}
			hour--
			if hour < 0 {
				hour = 23
			}
			return buildClock(hour, 60-minute, meridiem)
		}
	}

	return Clock{}, ErrUnparseable
}

// Hours computes the elapsed duration end-start in hours, rounded to two
// decimals. Same-day spans only: end at or before start fails with
// ErrInvalidRange.
func Hours(start, end Clock) (float64, error) {
	diff := end.minutes() - start.minutes()
	if diff <= 0 {
		return 0, ErrInvalidRange
	}
	return math.Round(float64(diff)/60*100) / 100, nil
}

// WorkDate returns the civil date (YYYY-MM-DD) for now in the given IANA
// timezone. The tenant's calendar decides the date, not the host's; this
// matters for callers near midnight or hosts in another region.
func WorkDate(now time.Time, tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("timeparse: bad timezone %q: %w", tz, err)
	}
	return now.In(loc).Format("2006-01-02"), nil
}

func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, "a.m.", "am")
	s = strings.ReplaceAll(s, "p.m.", "pm")
	s = strings.ReplaceAll(s, "o'clock", "")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// splitMeridiem strips a trailing am/pm marker, returning the remainder
// and the marker ("" when absent).
func splitMeridiem(s string) (string, string) {
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(s, suffix) {
			rest := strings.TrimSpace(strings.TrimSuffix(s, suffix))
			if rest != "" {
				return rest, suffix
			}
		}
	}
	return s, ""
}

func relativeMinutes(word string) (int, error) {
	if n, ok := wordMinutes[word]; ok {
		return n, nil
	}
	n, err := strconv.Atoi(word)
	if err != nil || n <= 0 || n >= 60 {
		return 0, ErrUnparseable
	}
	return n, nil
}

func buildClock(hour, minute int, meridiem string) (Clock, error) {
	if minute < 0 || minute > 59 {
		return Clock{}, ErrUnparseable
	}
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return Clock{}, ErrUnparseable
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return Clock{}, ErrUnparseable
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return Clock{}, ErrUnparseable
		}
	}
	return Clock{Hour: hour, Minute: minute}, nil
}
