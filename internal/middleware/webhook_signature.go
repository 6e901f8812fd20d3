package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WebhookSignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const WebhookSignatureHeader = "X-Signature"

const maxWebhookBody = 1 << 20

// WebhookSignature verifies the HMAC of a rail callback. An empty secret
// disables verification, which is only meant for local development.
func WebhookSignature(rail, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		logger := GetLoggerFromCtx(c.Request.Context()).With(slog.String("rail", rail))

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			logger.Warn("Failed to read webhook body", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		given := strings.TrimPrefix(c.GetHeader(WebhookSignatureHeader), "sha256=")
		if !ValidWebhookSignature(secret, body, given) {
			logger.Warn("Webhook signature mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

// ValidWebhookSignature reports whether signatureHex is the HMAC-SHA256 of body under secret.
func ValidWebhookSignature(secret string, body []byte, signatureHex string) bool {
	given, err := hex.DecodeString(signatureHex)
	if err != nil || len(given) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}

// SignWebhookBody computes the signature a rail would send for body.
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
