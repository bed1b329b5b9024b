package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

// Success returns a 200 JSON response wrapping extras.
func Success(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    http.StatusOK,
		Extras:  extras,
	})
}

// Error returns a JSON error response with the given status code.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Extras:  map[string]any{"message": message},
	})
}
