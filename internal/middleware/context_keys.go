package middleware

import "github.com/gin-gonic/gin"

// contextKey is a private type for values stored in request contexts.
// Using a custom type prevents collisions.
type contextKey string

const (
	loggerCtxKey = contextKey("logger")
	// operatorIDKey holds the authenticated operator's ID.
	operatorIDKey = contextKey("operatorID")
)

// GetOperatorIDFromContext retrieves the authenticated operator ID from the request.
// It returns the ID and a boolean indicating if it was found.
func GetOperatorIDFromContext(c *gin.Context) (string, bool) {
	operatorID, ok := c.Request.Context().Value(operatorIDKey).(string)
	if !ok || operatorID == "" {
		return "", false
	}
	return operatorID, true
}
