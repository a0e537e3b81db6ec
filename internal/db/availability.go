package db

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

const closedLiteral = "Closed"

// DayAvailability is either Closed or a set of opening hours.
type DayAvailability struct {
	Closed    bool
	Enabled   bool
	OpenTime  string
	CloseTime string
}

type dayHours struct {
	Enabled   bool   `json:"enabled"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

func ClosedDay() DayAvailability {
	return DayAvailability{Closed: true}
}

func OpenDay(openTime, closeTime string) DayAvailability {
	return DayAvailability{Enabled: true, OpenTime: openTime, CloseTime: closeTime}
}

func (d DayAvailability) MarshalJSON() ([]byte, error) {
	if d.Closed {
		return json.Marshal(closedLiteral)
	}
	return json.Marshal(dayHours{Enabled: d.Enabled, OpenTime: d.OpenTime, CloseTime: d.CloseTime})
}

func (d *DayAvailability) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !strings.EqualFold(s, closedLiteral) {
			return fmt.Errorf("unexpected day value %q", s)
		}
		*d = ClosedDay()
		return nil
	}
	var h dayHours
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	*d = DayAvailability{Enabled: h.Enabled, OpenTime: h.OpenTime, CloseTime: h.CloseTime}
	return nil
}

func (d DayAvailability) validate() error {
	if d.Closed || !d.Enabled {
		return nil
	}
	openAt, err := time.Parse("15:04", d.OpenTime)
	if err != nil {
		return fmt.Errorf("invalid openTime %q", d.OpenTime)
	}
	closeAt, err := time.Parse("15:04", d.CloseTime)
	if err != nil {
		return fmt.Errorf("invalid closeTime %q", d.CloseTime)
	}
	if !openAt.Before(closeAt) {
		return fmt.Errorf("openTime %s must be before closeTime %s", d.OpenTime, d.CloseTime)
	}
	return nil
}

// WeeklyAvailability holds a space's opening hours per weekday. It is shown
// to renters and never blocks dates by itself.
type WeeklyAvailability map[Weekday]DayAvailability

func (a WeeklyAvailability) Validate() error {
	for day, hours := range a {
		if _, ok := weekdays[day]; !ok {
			return fmt.Errorf("unknown weekday %q", day)
		}
		if err := hours.validate(); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	return nil
}

// On returns the hours stored for the given weekday.
func (a WeeklyAvailability) On(wd time.Weekday) (DayAvailability, bool) {
	for day, std := range weekdays {
		if std == wd {
			hours, ok := a[day]
			return hours, ok
		}
	}
	return DayAvailability{}, false
}

func (a WeeklyAvailability) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (a *WeeklyAvailability) Scan(src interface{}) error {
	data, err := jsonbBytes(src)
	if err != nil || data == nil {
		*a = nil
		return err
	}
	var out WeeklyAvailability
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decoding availability: %w", err)
	}
	*a = out
	return nil
}

func jsonbBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		if string(v) == "null" {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "null" {
			return nil, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source %T", src)
	}
}
