package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
)

// ClientIDHeader lets a trusted frontend pass a stable caller identity.
const ClientIDHeader = "X-Client-Id"

// maxClientIDLength bounds the header value, in bytes, used as a store key.
const maxClientIDLength = 128

// ClientIdentity returns the rate-limit and audit identity of the caller:
// the X-Client-Id header when present, otherwise the client IP.
func ClientIdentity(c fiber.Ctx) string {
	return Identity(c.Get(ClientIDHeader), c.IP())
}

// Identity builds a caller identity from a raw X-Client-Id value and the
// remote IP. The id is trimmed and cut to maxClientIDLength bytes on a rune
// boundary.
func Identity(clientID, ip string) string {
	id := strings.TrimSpace(clientID)
	if id == "" {
		return "ip:" + ip
	}
	if len(id) > maxClientIDLength {
		n := maxClientIDLength
		for n > 0 && !utf8.RuneStart(id[n]) {
			n--
		}
		id = id[:n]
	}
	return "client:" + id
}
