package narrative

import "time"

// Time is the in-story calendar position. It is independent from wall-clock time.
type Time struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// TimeDelta is an elapsed span of story time.
type TimeDelta struct {
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

// Normalized returns t with a missing month or day defaulted to 1.
func (t Time) Normalized() Time {
	t.Month = max(t.Month, 1)
	t.Day = max(t.Day, 1)
	return t
}

// Add returns t advanced by d with full calendar carry.
func (t Time) Add(d TimeDelta) Time {
	t = t.Normalized()
	moved := time.Date(
		t.Year,
		time.Month(t.Month),
		t.Day+d.Days,
		t.Hour+d.Hours,
		t.Minute+d.Minutes,
		t.Second+d.Seconds,
		0,
		time.UTC,
	)
	return FromStdTime(moved)
}

// Std converts t to a UTC time.Time.
func (t Time) Std() time.Time {
	t = t.Normalized()
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// Since returns the elapsed story time between earlier and t.
func (t Time) Since(earlier Time) time.Duration {
	return t.Std().Sub(earlier.Std())
}

// Weekday reports the day of the week at t.
func (t Time) Weekday() time.Weekday {
	return t.Std().Weekday()
}

func FromStdTime(value time.Time) Time {
	value = value.UTC()
	return Time{
		Year:   value.Year(),
		Month:  int(value.Month()),
		Day:    value.Day(),
		Hour:   value.Hour(),
		Minute: value.Minute(),
		Second: value.Second(),
	}
}

func (d TimeDelta) Duration() time.Duration {
	return time.Duration(d.Days)*24*time.Hour +
		time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second
}
