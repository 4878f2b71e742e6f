package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSlotBooked      = errors.New("slot is already booked")
	ErrSlotInPast      = errors.New("slot is in the past")
	ErrUnknownSlotTime = errors.New("unknown slot time")
)

// Канонический дневной график приёма: двенадцать часовых слотов
// с 09:00 до 20:00, без получасовых.
var CanonicalSlots = []string{
	"09:00", "10:00", "11:00", "12:00",
	"13:00", "14:00", "15:00", "16:00",
	"17:00", "18:00", "19:00", "20:00",
}

// BookedSlotsIndex — занятые слоты врача по кодированным датам.
// Отсутствие даты в индексе означает «брони нет», это не ошибка.
type BookedSlotsIndex map[string][]string

// DaySlot — один день недельного окна с остатком свободных слотов.
type DaySlot struct {
	Weekday time.Weekday `json:"-"`

	WeekdayName string     `json:"weekday"`
	Day         int        `json:"day"`
	Month       time.Month `json:"month"`
	Year        int        `json:"year"`

	// Кодированная дата "day_month_year".
	Date string `json:"date"`

	Remaining   int  `json:"remaining"`
	FullyBooked bool `json:"fullyBooked"`
}

// TimeOption — один слот в пикере времени выбранного дня.
// Занятые слоты остаются в списке с флагом Booked, выбор блокирует вызывающий.
type TimeOption struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Booked bool   `json:"booked"`
}

// GenerateWeek строит окно из семи подряд идущих дней начиная с даты now.
// Остаток каждого дня — канонический график минус уже занятые слоты минус,
// для сегодняшнего дня, слоты с часом не позже текущего. Чистая функция.
func GenerateWeek(now time.Time, booked BookedSlotsIndex) []DaySlot {
	today := DateOf(now)

	days := make([]DaySlot, 0, 7)
	for i := 0; i < 7; i++ {
		t := now.AddDate(0, 0, i)
		d := DateOf(t)
		enc := d.String()

		remaining := 0
		for _, slot := range openSlots(d.Equal(today), now) {
			if !contains(booked[enc], slot) {
				remaining++
			}
		}

		days = append(days, DaySlot{
			Weekday:     t.Weekday(),
			WeekdayName: t.Weekday().String()[:3],
			Day:         d.Day,
			Month:       d.Month,
			Year:        d.Year,
			Date:        enc,
			Remaining:   remaining,
			FullyBooked: remaining == 0,
		})
	}

	return days
}

// DefaultSelection возвращает дату нулевого дня окна.
// Отдельный явный шаг: генератор сам ничего не выбирает.
func DefaultSelection(days []DaySlot) (string, bool) {
	if len(days) == 0 {
		return "", false
	}
	return days[0].Date, true
}

// TimeOptions строит строки пикера времени для выбранной даты.
// Для сегодняшнего дня прошедшие часы убираются целиком; занятые
// слоты остаются с пометкой Booked.
func TimeOptions(d EncodedDate, now time.Time, bookedTimes []string) []TimeOption {
	opts := make([]TimeOption, 0, len(CanonicalSlots))
	for _, slot := range openSlots(d.Equal(DateOf(now)), now) {
		opts = append(opts, TimeOption{
			Label:  slotLabel(slot),
			Value:  slot,
			Booked: contains(bookedTimes, slot),
		})
	}
	return opts
}

// ValidateSelection проверяет, что пара дата/время может быть отправлена
// в запрос бронирования: слот из канонического графика, не занят и не прошёл.
func ValidateSelection(d EncodedDate, slotTime string, now time.Time, booked BookedSlotsIndex) error {
	if !contains(CanonicalSlots, slotTime) {
		return fmt.Errorf("%w: %q", ErrUnknownSlotTime, slotTime)
	}

	today := DateOf(now)
	if d.Before(today) {
		return ErrSlotInPast
	}
	if d.Equal(today) {
		hour, _, err := ParseSlotTime(slotTime)
		if err != nil {
			return err
		}
		if hour <= now.Hour() {
			return ErrSlotInPast
		}
	}

	if contains(booked[d.String()], slotTime) {
		return ErrSlotBooked
	}

	return nil
}

// openSlots — канонический график с учётом «правила сегодняшнего дня»:
// сравнение строго по часу, минуты игнорируются, поэтому слот текущего
// часа выпадает даже в первые его минуты.
func openSlots(isToday bool, now time.Time) []string {
	if !isToday {
		return CanonicalSlots
	}
	open := make([]string, 0, len(CanonicalSlots))
	for _, slot := range CanonicalSlots {
		hour, _, err := ParseSlotTime(slot)
		if err != nil {
			continue
		}
		if hour > now.Hour() {
			open = append(open, slot)
		}
	}
	return open
}

func slotLabel(slot string) string {
	hour, _, err := ParseSlotTime(slot)
	if err != nil {
		return slot
	}
	switch {
	case hour == 0:
		return "12:00 AM"
	case hour < 12:
		return fmt.Sprintf("%02d:00 AM", hour)
	case hour == 12:
		return "12:00 PM"
	default:
		return fmt.Sprintf("%02d:00 PM", hour-12)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
