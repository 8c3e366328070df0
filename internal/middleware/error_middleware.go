package middleware

import (
	"freelance-chat/internal/transport/httpdto"
	chat_errors "freelance-chat/pkg/errors"
	"freelance-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Error("request error", zap.Error(err))
		}
		c.JSON(chat_errors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), chat_errors.Code(err)))
	}
}
