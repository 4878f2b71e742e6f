package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// Нечитаемая строка даты или времени слота.
	ErrInvalidScheduleEncoding = errors.New("invalid schedule encoding")
)

// EncodedDate — календарная дата слота без времени.
// На проводе кодируется как "day_month_year" с месяцем от единицы и без
// ведущих нулей: "10_2_2026". Это единственная поддерживаемая схема,
// ISO-вариант "YYYY-MM-DD" не принимается.
// Внутри месяц хранится как time.Month, сдвигов индексации нет.
type EncodedDate struct {
	Day   int
	Month time.Month
	Year  int
}

// ParseEncodedDate разбирает строку вида "10_2_2026".
// Любой дефект — не три части, не числа, выход за диапазон —
// возвращается как ErrInvalidScheduleEncoding.
func ParseEncodedDate(s string) (EncodedDate, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return EncodedDate{}, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
	}

	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return EncodedDate{}, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
		}
		nums[i] = n
	}

	d := EncodedDate{Day: nums[0], Month: time.Month(nums[1]), Year: nums[2]}
	if d.Month < time.January || d.Month > time.December {
		return EncodedDate{}, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
	}

	// time.Date нормализует переполнение (32 января -> 1 февраля);
	// несовпадение после нормализации значит, что день вне месяца.
	norm := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	if norm.Day() != d.Day || norm.Month() != d.Month || norm.Year() != d.Year {
		return EncodedDate{}, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
	}

	return d, nil
}

// DateOf переводит момент времени в календарную дату в его локали.
func DateOf(t time.Time) EncodedDate {
	y, m, d := t.Date()
	return EncodedDate{Day: d, Month: m, Year: y}
}

// String возвращает каноническую форму "day_month_year".
func (d EncodedDate) String() string {
	return fmt.Sprintf("%d_%d_%d", d.Day, int(d.Month), d.Year)
}

// Midnight — полночь этой даты в заданном часовом поясе.
func (d EncodedDate) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before сравнивает только календарные даты, время не участвует.
func (d EncodedDate) Before(other EncodedDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Equal — совпадение календарных дат.
func (d EncodedDate) Equal(other EncodedDate) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// ParseSlotTime разбирает время слота "HH:MM" (24 часа).
func ParseSlotTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduleEncoding, s)
	}
	return hour, minute, nil
}

// SlotInstant собирает момент начала слота в заданном часовом поясе.
func SlotInstant(d EncodedDate, slotTime string, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseSlotTime(slotTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc), nil
}
