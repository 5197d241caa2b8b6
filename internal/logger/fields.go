package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider = "oracle_provider"
	FieldModel    = "oracle_model"
)

// WithOracle добавляет к логгеру провайдера и модель оракула.
// Пустые значения пропускаются, nil заменяется на no-op логгер.
func WithOracle(logger *zap.Logger, provider, model string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := make([]zap.Field, 0, 2)
	if v := strings.TrimSpace(provider); v != "" {
		fields = append(fields, zap.String(FieldProvider, v))
	}
	if v := strings.TrimSpace(model); v != "" {
		fields = append(fields, zap.String(FieldModel, v))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
