package attendance

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day with second precision, detached
// from any date or zone.
type ClockTime struct {
	sinceMidnight time.Duration
}

func NewClockTime(hour, minute, second int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %02d:%02d:%02d", hour, minute, second)
	}
	d := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
	return ClockTime{sinceMidnight: d}, nil
}

// ParseClockTime accepts "HH:MM:SS" or "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
		}
	}
	return NewClockTime(t.Hour(), t.Minute(), t.Second())
}

// ParseClockTimePtr parses an optional value; nil or "" yields nil.
func ParseClockTimePtr(s *string) (*ClockTime, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	c, err := ParseClockTime(*s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (c ClockTime) String() string {
	total := int(c.sinceMidnight / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Sub returns c - o. The result is negative when o is later in the day.
func (c ClockTime) Sub(o ClockTime) time.Duration {
	return c.sinceMidnight - o.sinceMidnight
}

func (c ClockTime) Equal(o ClockTime) bool {
	return c.sinceMidnight == o.sinceMidnight
}

// ClockTimePtrToString formats an optional clock time for storage or responses.
func ClockTimePtrToString(c *ClockTime) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}
