package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/api/constants"
)

// BodyReaderOption defines options for body reader middleware
type BodyReaderOption struct {
	MaxBodySize int64
}

// PreserveRequestBody middleware reads the request body once and restores it
// This allows validators and handlers to both read the body
func PreserveRequestBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		option := BodyReaderOption{
			MaxBodySize: 10 * 1024 * 1024, // 10 MB default
		}
		c.Set(constants.ContextKeyBodyValidation, option)

		// Only process requests that carry a body
		if c.Request.Body == nil || (c.Request.Method != "POST" && c.Request.Method != "PUT" && c.Request.Method != "PATCH" && c.Request.Method != "DELETE") {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		// Catch malformed requests where the declared length disagrees
		if (c.Request.ContentLength == 0 && len(bodyBytes) > 0) || (c.Request.ContentLength > 0 && int64(len(bodyBytes)) != c.Request.ContentLength) {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		if int64(len(bodyBytes)) > option.MaxBodySize {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		// Restore the body for subsequent middleware
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		c.Set(constants.ContextKeyRawBody, bodyBytes)

		c.Next()
	}
}
