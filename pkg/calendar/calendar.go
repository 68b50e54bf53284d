package calendar

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
	DaysInWeek = 7
)

// StartOfDay возвращает полночь календарного дня t в часовом поясе loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	return now.With(t.In(loc)).BeginningOfDay()
}

// SameDay проверяет, что t приходится на календарный день day (в поясе day).
func SameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	return t.Year() == day.Year() && t.Month() == day.Month() && t.Day() == day.Day()
}

// WeekStart возвращает понедельник недели, в которую попадает t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
	return cfg.With(t.In(loc)).BeginningOfWeek()
}

// WeekDays возвращает семь дней начиная с weekStart.
func WeekDays(weekStart time.Time, loc *time.Location) []time.Time {
	start := StartOfDay(weekStart, loc)
	days := make([]time.Time, 0, DaysInWeek)
	for i := 0; i < DaysInWeek; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// WeekWindow возвращает полуинтервал [weekStart, weekStart+7d).
func WeekWindow(weekStart time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(weekStart, loc)
	return start, start.AddDate(0, 0, DaysInWeek)
}

// DayWindow возвращает полуинтервал [начало дня, начало следующего дня).
func DayWindow(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(day, loc)
	return start, start.AddDate(0, 0, 1)
}

// OnDate переносит время суток t на дату day.
func OnDate(t, day time.Time) time.Time {
	t = t.In(day.Location())
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}

// DayKey - ключ дня для map.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate парсит дату в формате YYYY-MM-DD.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// ParseClock парсит время суток "ЧЧ:ММ" и переносит его на день day.
func ParseClock(s string, day time.Time) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// FormatMinutes форматирует минуты как "7ч 30м".
func FormatMinutes(minutes int) string {
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dч", hours)
	}
	return fmt.Sprintf("%dч %dм", hours, rest)
}
