package handler

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// maxAuditLimit caps how many entries one request can list.
const maxAuditLimit = 1000

// AuditHandler handles audit log endpoints.
type AuditHandler struct {
	store port.AuditStore
	token string
}

// NewAuditHandler creates a new audit handler. Requests must carry token as a
// bearer credential.
func NewAuditHandler(store port.AuditStore, token string) *AuditHandler {
	return &AuditHandler{store: store, token: token}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	audit := router.Group("/audit", h.requireToken)
	audit.Get("/logs", h.ListLogs)
}

func (h *AuditHandler) requireToken(c fiber.Ctx) error {
	auth := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || h.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.Next()
}

// ListLogs returns audit logs with optional filtering.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 || limit > maxAuditLimit {
		limit = 100
	}
	action := c.Query("action", "")

	logs, err := h.store.ListAuditLogs(c.Context(), limit, action)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list audit logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}
