package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UpdateSource получает обновления через long polling
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller забирает обновления и передает их диспетчеру
type Poller struct {
	source     UpdateSource
	dispatcher *Dispatcher
	timeout    time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewPoller(source UpdateSource, dispatcher *Dispatcher, timeout time.Duration, logger *zap.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		source:     source,
		dispatcher: dispatcher,
		timeout:    timeout,
		retryDelay: 5 * time.Second,
		logger:     logger,
	}
}

// Run опрашивает Bot API до отмены контекста
func (p *Poller) Run(ctx context.Context) {
	var offset int64
	// начатые обновления доживают до конца при остановке
	handleCtx := context.WithoutCancel(ctx)
	p.logger.Info("telegram polling started", zap.Duration("timeout", p.timeout))

	for {
		if ctx.Err() != nil {
			p.logger.Info("telegram polling stopped")
			return
		}

		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("failed to get updates", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.dispatcher.Dispatch(handleCtx, update)
		}
	}
}
