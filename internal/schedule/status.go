package schedule

import (
	"sort"
	"time"

	"github.com/medibook/mobile-core/internal/model"
)

// Временной фильтр списка записей.
type Filter string

const (
	FilterUpcoming Filter = "upcoming"
	FilterPast     Filter = "past"
	FilterAll      Filter = "all"
)

// ResolveStatus вычисляет отображаемый статус записи на момент now.
// Порядок приоритетов фиксированный, первый совпавший побеждает:
// cancelled, completed, просроченная неоплаченная (показываем как
// отменённую ещё до подтверждения сервером), оплаченная, запланированная.
func ResolveStatus(appt model.Appointment, now time.Time) model.DerivedStatus {
	if appt.Cancelled {
		return model.StatusCancelled
	}
	if appt.IsCompleted {
		return model.StatusCompleted
	}

	d, err := ParseEncodedDate(appt.SlotDate)
	if err != nil {
		return model.StatusUnknown
	}
	at, err := SlotInstant(d, appt.SlotTime, now.Location())
	if err != nil {
		return model.StatusUnknown
	}

	if at.Before(now) && !appt.Paid {
		return model.StatusCancelled
	}
	if appt.Paid {
		return model.StatusConfirmed
	}
	return model.StatusScheduled
}

// Partition отбирает записи под временной фильтр.
// upcoming — дата не раньше сегодняшней (сравнение только по дате),
// без отменённых и завершённых, в исходном порядке. past — остальное,
// по убыванию даты, при равенстве порядок исходный. all — как есть.
// Записи с нечитаемой датой в upcoming не попадают, в past уходят в конец.
func Partition(appts []model.Appointment, f Filter, now time.Time) []model.Appointment {
	switch f {
	case FilterUpcoming:
		today := DateOf(now)
		out := make([]model.Appointment, 0, len(appts))
		for _, a := range appts {
			if a.Cancelled || a.IsCompleted {
				continue
			}
			d, err := ParseEncodedDate(a.SlotDate)
			if err != nil {
				continue
			}
			if !d.Before(today) {
				out = append(out, a)
			}
		}
		return out

	case FilterPast:
		todayMidnight := DateOf(now).Midnight(now.Location())

		type keyed struct {
			appt model.Appointment
			at   time.Time
		}
		items := make([]keyed, 0, len(appts))
		for _, a := range appts {
			d, err := ParseEncodedDate(a.SlotDate)
			if err != nil {
				// Нечитаемая дата: запись показываем среди прошлых,
				// нулевой ключ уводит её в хвост сортировки.
				items = append(items, keyed{appt: a})
				continue
			}
			at := d.Midnight(now.Location())
			if at.Before(todayMidnight) || a.IsCompleted || a.Cancelled {
				items = append(items, keyed{appt: a, at: at})
			}
		}
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].at.After(items[j].at)
		})
		out := make([]model.Appointment, 0, len(items))
		for _, it := range items {
			out = append(out, it.appt)
		}
		return out

	default:
		out := make([]model.Appointment, len(appts))
		copy(out, appts)
		return out
	}
}

// FindMissed возвращает идентификаторы просроченных неоплаченных записей:
// не отменена, не завершена, не оплачена, и слот уже прошёл — либо дата
// строго раньше сегодняшней, либо сегодняшняя, но момент слота раньше now.
// Нечитаемые записи пропускаются: отменять их вслепую нельзя.
// Порядок идентификаторов — порядок входа.
func FindMissed(appts []model.Appointment, now time.Time) []string {
	today := DateOf(now)

	var ids []string
	for _, a := range appts {
		if a.Cancelled || a.IsCompleted || a.Paid {
			continue
		}
		d, err := ParseEncodedDate(a.SlotDate)
		if err != nil {
			continue
		}
		if d.Before(today) {
			ids = append(ids, a.ID)
			continue
		}
		if d.Equal(today) {
			at, err := SlotInstant(d, a.SlotTime, now.Location())
			if err != nil {
				continue
			}
			if at.Before(now) {
				ids = append(ids, a.ID)
			}
		}
	}
	return ids
}
