package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/response"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyKeyCtx    = "idempotency_key"
	maxIdempotencyKeyLen = 128
)

// Idempotency reads the Idempotency-Key header and validates its shape. The
// issuance services own replay: the key is stored on the receipt it produced.
func Idempotency(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if required {
				response.Error(c, apperror.NewFieldError(IdempotencyKeyHeader, "header is required for this request"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if len(key) > maxIdempotencyKeyLen || !printable(key) {
			response.Error(c, apperror.NewFieldError(IdempotencyKeyHeader, "must be at most 128 printable ASCII characters"))
			c.Abort()
			return
		}

		c.Set(idempotencyKeyCtx, key)
		c.Next()
	}
}

// GetIdempotencyKey returns the validated key, or "" when the request carried none.
func GetIdempotencyKey(c *gin.Context) string {
	return c.GetString(idempotencyKeyCtx)
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
