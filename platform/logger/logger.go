// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TenantIDKey is the context key for tenant ID
	TenantIDKey contextKey = "tenant_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and tenant_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok && tenantID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("tenant_id", tenantID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// WebhookResult logs the outcome of one webhook delivery.
func (l *Logger) WebhookResult(channel, requestID string, processed, errored int, latencyMs float64) {
	l.Info("webhook_result",
		slog.String("channel", channel),
		slog.String("request_id", requestID),
		slog.Int("processed", processed),
		slog.Int("errors", errored),
		slog.Float64("processing_ms", latencyMs),
	)
}

// SchedulerRun logs one queue preparation run for a tenant.
func (l *Logger) SchedulerRun(tenantID, forDate string, assigned int, skipped bool, reason string) {
	if skipped {
		l.Warn("queue_preparation_skipped",
			slog.String("tenant_id", tenantID),
			slog.String("for_date", forDate),
			slog.String("reason", reason),
		)
		return
	}
	l.Info("queue_preparation_complete",
		slog.String("tenant_id", tenantID),
		slog.String("for_date", forDate),
		slog.Int("assigned", assigned),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
