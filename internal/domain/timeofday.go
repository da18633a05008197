package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a submission time as seconds after midnight.
type TimeOfDay int

// EndOfDay is used when no submission time was recorded, so such sheets lose ties.
const EndOfDay TimeOfDay = 23*3600 + 59*60 + 59

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS"; empty input yields EndOfDay.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EndOfDay, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, Invalid("submitted_at", "invalid time of day %q", raw)
	}
	var clock [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, Invalid("submitted_at", "invalid time of day %q", raw)
		}
		clock[i] = n
	}
	h, m, sec := clock[0], clock[1], clock[2]
	if h > 23 || m > 59 || sec > 59 {
		return 0, Invalid("submitted_at", "invalid time of day %q", raw)
	}
	return NewTimeOfDay(h, m, sec), nil
}

// String renders HH:MM, or HH:MM:SS when seconds are set.
func (t TimeOfDay) String() string {
	h, m, s := int(t)/3600, int(t)%3600/60, int(t)%60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
