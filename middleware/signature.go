package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const rawWebhookBodyKey = "raw_webhook_body"

// PaystackWebhookAuth verifies the HMAC-SHA512 signature the gateway
// computes over the raw payload with the shared secret key. On mismatch the
// request is rejected and no action is taken; on match the raw body is
// stashed in the context so the handler can persist it verbatim for audit.
func PaystackWebhookAuth(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		signature := c.GetHeader("x-paystack-signature")
		if signature == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing webhook signature"})
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		mac := hmac.New(sha512.New, []byte(secretKey))
		mac.Write(body)
		calculated := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(calculated), []byte(signature)) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Set(rawWebhookBodyKey, body)
		c.Next()
	}
}

// RawWebhookBody returns the authenticated raw payload stored by
// PaystackWebhookAuth.
func RawWebhookBody(c *gin.Context) []byte {
	if v, ok := c.Get(rawWebhookBodyKey); ok {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}
