package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ExceptionResponse — формат ошибки, который ждёт фронт:
// {message, status, timestamp}.
type ExceptionResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, ExceptionResponse{
		Message:   msg,
		Status:    http.StatusText(code),
		Timestamp: time.Now().UTC(),
	})
}
