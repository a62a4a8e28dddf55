package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// auditWriteTimeout bounds the detached audit write.
const auditWriteTimeout = 5 * time.Second

// AuditMiddleware records every request in the audit store.
func AuditMiddleware(store port.AuditStore) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Copy request data BEFORE handler execution (Fiber reuses context buffers)
		method := strings.Clone(c.Method())
		path := strings.Clone(c.Path())
		ip := strings.Clone(c.IP())
		userAgent := strings.Clone(c.Get(fiber.HeaderUserAgent))
		identity := strings.Clone(ClientIdentity(c))

		err := c.Next()

		entry := domain.AuditLog{
			Identity:   identity,
			Action:     domain.AuditActionHTTPRequest,
			Path:       method + " " + path,
			Status:     c.Response().StatusCode(),
			DurationMS: time.Since(start).Milliseconds(),
			IP:         ip,
			UserAgent:  userAgent,
			CreatedAt:  start.UTC(),
		}
		if err != nil {
			// The error handler has not run yet; record the status it will send.
			entry.Status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				entry.Status = fe.Code
			}
		}

		// Write asynchronously; every value is captured above.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if writeErr := store.WriteAudit(ctx, entry); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}
