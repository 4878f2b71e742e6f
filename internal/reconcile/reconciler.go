package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Отмена этой записи уже идёт — синхронная или фоновая.
var ErrAlreadyInFlight = errors.New("cancellation already in flight")

// Canceller отправляет запрос отмены записи во внешний booking API.
// В проде это клиент бэкенда, в тестах — мок.
type Canceller interface {
	CancelAppointment(ctx context.Context, token, appointmentID string) error
}

// Reconciler рассылает best-effort отмены просроченных записей.
// Результат никому не возвращается: авторитетное состояние всё равно
// пересчитывается при следующей загрузке списка. Ошибки сети глотаются.
type Reconciler struct {
	canceller Canceller
	log       zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func NewReconciler(canceller Canceller, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		canceller: canceller,
		log:       log,
		inflight:  make(map[string]struct{}),
	}
}

// Dispatch запускает по одной фоновой отмене на каждый идентификатор.
// Повторный вызов для записи, чья отмена ещё в полёте, игнорируется —
// два параллельных запроса на одну запись недопустимы.
// Возвращает число реально запущенных отмен.
func (r *Reconciler) Dispatch(ctx context.Context, token string, ids []string) int {
	started := 0
	for _, id := range ids {
		if !r.acquire(id) {
			continue
		}
		started++

		r.wg.Add(1)
		go func(id string) {
			defer r.wg.Done()
			defer r.release(id)

			if err := r.canceller.CancelAppointment(ctx, token, id); err != nil {
				// Ретраев нет: это задача сетевого слоя, не наша.
				r.log.Warn().Err(err).Str("appointment_id", id).Msg("background cancel failed")
				return
			}
			r.log.Debug().Str("appointment_id", id).Msg("missed appointment cancelled")
		}(id)
	}
	return started
}

// RunSync выполняет синхронную отмену под тем же замком, что и фоновые:
// пока по записи летит любая отмена, вторая не начнётся.
// В отличие от Dispatch ошибку возвращает вызывающему.
func (r *Reconciler) RunSync(ctx context.Context, token, id string) error {
	if !r.acquire(id) {
		return ErrAlreadyInFlight
	}
	defer r.release(id)
	return r.canceller.CancelAppointment(ctx, token, id)
}

// InFlight сообщает, идёт ли сейчас отмена этой записи.
func (r *Reconciler) InFlight(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[id]
	return ok
}

// Wait дожидается завершения всех запущенных отмен.
// Нужен тестам и graceful shutdown.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) acquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[id]; ok {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *Reconciler) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}
