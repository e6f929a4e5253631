package utils

import (
	"github.com/gin-gonic/gin"
)

func SuccessResponse(c *gin.Context, status int, payload interface{}) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func MessageResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// FieldErrorResponse renders validation problems keyed by request field.
func FieldErrorResponse(c *gin.Context, status int, fields map[string][]string) {
	c.JSON(status, fields)
}
