package model

// Отображаемый статус записи. Вычисляется на клиенте из флагов
// и текущего времени, нигде не хранится.
type DerivedStatus string

const (
	StatusScheduled DerivedStatus = "scheduled"
	StatusConfirmed DerivedStatus = "confirmed"
	StatusCompleted DerivedStatus = "completed"
	StatusCancelled DerivedStatus = "cancelled"
	// Запись с нечитаемой датой/временем; показываем как есть, не падаем.
	StatusUnknown DerivedStatus = "unknown"
)
