package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// JSONRejection sends a business-rule rejection; it is a result, not a failure,
// so data is still attached for the client to display
func JSONRejection(c *gin.Context, status int, data any, reason string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": "bid rejected",
		"reason":  reason,
		"data":    data,
	})
}
