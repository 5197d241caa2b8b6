package telegram

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// UpdateHandler обрабатывает одно обновление
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update) error
}

// Dispatcher обрабатывает обновления одного участника строго по очереди,
// а обновления разных участников параллельно.
type Dispatcher struct {
	handler UpdateHandler
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[int64][]Update
	wg      sync.WaitGroup
}

func NewDispatcher(handler UpdateHandler, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		pending: make(map[int64][]Update),
	}
}

// Dispatch ставит обновление в очередь участника
func (d *Dispatcher) Dispatch(ctx context.Context, update Update) {
	key := update.SenderID()

	d.mu.Lock()
	queue, running := d.pending[key]
	d.pending[key] = append(queue, update)
	if !running {
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if !running {
		go d.drain(ctx, key)
	}
}

// Wait ждет обработки всех поставленных обновлений
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain(ctx context.Context, key int64) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		queue := d.pending[key]
		if len(queue) == 0 {
			delete(d.pending, key)
			d.mu.Unlock()
			return
		}
		update := queue[0]
		d.pending[key] = queue[1:]
		d.mu.Unlock()

		d.handle(ctx, update)
	}
}

func (d *Dispatcher) handle(ctx context.Context, update Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("update handler panicked", zap.Int64("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	if err := d.handler.HandleUpdate(ctx, update); err != nil {
		d.logger.Error("failed to handle update",
			zap.Int64("update_id", update.UpdateID),
			zap.Int64("user_id", update.SenderID()),
			zap.Error(err),
		)
	}
}
