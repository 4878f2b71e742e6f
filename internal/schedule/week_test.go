package schedule

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) EncodedDate {
	t.Helper()
	d, err := ParseEncodedDate(s)
	if err != nil {
		t.Fatalf("ParseEncodedDate(%q): %v", s, err)
	}
	return d
}

func TestGenerateWeek_SevenConsecutiveDays(t *testing.T) {
	now := time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)

	days := GenerateWeek(now, nil)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}

	for i, day := range days {
		want := DateOf(now.AddDate(0, 0, i))
		if day.Date != want.String() {
			t.Fatalf("day %d: expected %s, got %s", i, want, day.Date)
		}
	}
}

func TestGenerateWeek_TodayHourRule(t *testing.T) {
	// Час 14: сегодня остаются только 15:00..20:00, шесть слотов.
	// Минуты не влияют, слот текущего часа выпадает всегда.
	now := time.Date(2026, time.February, 10, 14, 5, 0, 0, time.UTC)

	days := GenerateWeek(now, nil)
	if days[0].Remaining != 6 {
		t.Fatalf("today remaining = %d, want 6", days[0].Remaining)
	}
	// Остальные дни открыты полностью.
	for i := 1; i < 7; i++ {
		if days[i].Remaining != len(CanonicalSlots) {
			t.Fatalf("day %d remaining = %d, want %d", i, days[i].Remaining, len(CanonicalSlots))
		}
	}
}

func TestGenerateWeek_NoDoubleSubtraction(t *testing.T) {
	// 10_2_2026 в 09:30: фильтр по часу убирает только 09:00,
	// занятые 09:00 и 10:00 не должны вычитаться дважды.
	now := time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC)
	booked := BookedSlotsIndex{
		"10_2_2026": {"09:00", "10:00"},
	}

	days := GenerateWeek(now, booked)
	if days[0].Date != "10_2_2026" {
		t.Fatalf("day 0 date = %s, want 10_2_2026", days[0].Date)
	}
	if days[0].Remaining != 10 {
		t.Fatalf("remaining = %d, want 10", days[0].Remaining)
	}
}

func TestGenerateWeek_FullyBooked(t *testing.T) {
	now := time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)
	booked := BookedSlotsIndex{
		"11_2_2026": append([]string{}, CanonicalSlots...),
	}

	days := GenerateWeek(now, booked)
	if !days[1].FullyBooked {
		t.Fatalf("expected day 11_2_2026 fully booked")
	}
	if days[1].Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", days[1].Remaining)
	}
	if days[0].FullyBooked {
		t.Fatalf("day 0 should stay open")
	}
}

func TestGenerateWeek_MissingIndexEntryMeansOpen(t *testing.T) {
	now := time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)

	days := GenerateWeek(now, BookedSlotsIndex{})
	for _, day := range days {
		if day.Remaining != len(CanonicalSlots) {
			t.Fatalf("day %s remaining = %d, want %d", day.Date, day.Remaining, len(CanonicalSlots))
		}
	}
}

func TestDefaultSelection(t *testing.T) {
	now := time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)
	days := GenerateWeek(now, nil)

	date, ok := DefaultSelection(days)
	if !ok || date != "10_2_2026" {
		t.Fatalf("DefaultSelection = %q/%v, want 10_2_2026/true", date, ok)
	}

	if _, ok := DefaultSelection(nil); ok {
		t.Fatalf("DefaultSelection(nil) should report no selection")
	}
}

func TestTimeOptions_TodayAndBooked(t *testing.T) {
	now := time.Date(2026, time.February, 10, 17, 45, 0, 0, time.UTC)
	d := mustDate(t, "10_2_2026")

	opts := TimeOptions(d, now, []string{"19:00"})
	// Остались 18:00, 19:00, 20:00.
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %d", len(opts))
	}
	if opts[0].Value != "18:00" || opts[0].Label != "06:00 PM" {
		t.Fatalf("unexpected first option %+v", opts[0])
	}
	if !opts[1].Booked {
		t.Fatalf("19:00 must be marked booked")
	}
	if opts[2].Booked {
		t.Fatalf("20:00 must stay free")
	}
}

func TestTimeOptions_FutureDayKeepsFullGrid(t *testing.T) {
	now := time.Date(2026, time.February, 10, 17, 45, 0, 0, time.UTC)
	d := mustDate(t, "12_2_2026")

	opts := TimeOptions(d, now, nil)
	if len(opts) != len(CanonicalSlots) {
		t.Fatalf("expected %d options, got %d", len(CanonicalSlots), len(opts))
	}
	if opts[0].Label != "09:00 AM" || opts[3].Label != "12:00 PM" || opts[4].Label != "01:00 PM" {
		t.Fatalf("unexpected labels: %+v", opts)
	}
}

func TestValidateSelection(t *testing.T) {
	now := time.Date(2026, time.February, 10, 14, 5, 0, 0, time.UTC)
	booked := BookedSlotsIndex{"10_2_2026": {"16:00"}}

	if err := ValidateSelection(mustDate(t, "10_2_2026"), "15:00", now, booked); err != nil {
		t.Fatalf("15:00 today must be bookable: %v", err)
	}

	if err := ValidateSelection(mustDate(t, "10_2_2026"), "14:00", now, booked); !errors.Is(err, ErrSlotInPast) {
		t.Fatalf("current hour must be rejected, got %v", err)
	}
	if err := ValidateSelection(mustDate(t, "9_2_2026"), "15:00", now, booked); !errors.Is(err, ErrSlotInPast) {
		t.Fatalf("yesterday must be rejected, got %v", err)
	}
	if err := ValidateSelection(mustDate(t, "10_2_2026"), "16:00", now, booked); !errors.Is(err, ErrSlotBooked) {
		t.Fatalf("booked slot must be rejected, got %v", err)
	}
	if err := ValidateSelection(mustDate(t, "10_2_2026"), "15:30", now, booked); !errors.Is(err, ErrUnknownSlotTime) {
		t.Fatalf("non-canonical time must be rejected, got %v", err)
	}
}
