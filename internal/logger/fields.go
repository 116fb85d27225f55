package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldOp is the structured log field key for the service operation.
	FieldOp = "op"
	// FieldEndpoint is the structured log field key for the service endpoint path.
	FieldEndpoint = "endpoint"
	// FieldPhase is the structured log field key for the session phase.
	FieldPhase = "phase"
	// FieldGeneration is the structured log field key for the session generation.
	FieldGeneration = "generation"
	// FieldErrorKind is the structured log field key for a classified failure kind.
	FieldErrorKind = "error_kind"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe a service call.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(op, endpoint string) []zap.Field {
	return StringFields(
		StringField{Key: FieldOp, Value: op},
		StringField{Key: FieldEndpoint, Value: endpoint},
	)
}
