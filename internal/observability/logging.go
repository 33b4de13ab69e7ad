// Package observability provides logging, metrics, and tracing helpers.
package observability

import (
	"context"
	"log/slog"
)

// RepoLogger provides structured logging for repository operations.
// It resolves slog.Default at call time so it follows the process logger.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

func (l *RepoLogger) attrs(operation string, fields []any) []any {
	return append([]any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}, fields...)
}

// LogWrite logs a successful mutation at debug level.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, fields ...any) {
	slog.Default().DebugContext(ctx, "repository write", l.attrs(operation, fields)...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string, fields ...any) {
	fields = append(fields, slog.String("error", err.Error()))
	slog.Default().ErrorContext(ctx, "repository error", l.attrs(operation, fields)...)
}
