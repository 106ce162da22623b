// Package middleware provides HTTP middleware components.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"garageflow/internal/core/apperror"
	appctx "garageflow/internal/core/context"
	"garageflow/pkg/logger"
)

// Recovery turns a handler panic into a 500 problem response. The stack goes
// to the log with the route that triggered it, and WithContext adds the
// garage and request ids. The client only sees the request id.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http uses this sentinel to drop the connection silently.
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			ctx := c.Request.Context()
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			log.WithContext(ctx).Errorw("handler panicked",
				"panic", fmt.Sprint(rec),
				"method", c.Request.Method,
				"route", route,
				"stack", string(debug.Stack()),
			)

			span := trace.SpanFromContext(ctx)
			span.SetStatus(codes.Error, "panic")
			span.RecordError(fmt.Errorf("panic: %v", rec))

			if c.Writer.Written() {
				// Headers are gone; nothing useful can be rendered.
				c.Abort()
				return
			}
			// ErrorHandler sits inside this frame and was unwound by the panic.
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{
					"request_id": appctx.GetRequestID(ctx),
				},
			})
		}()
		c.Next()
	}
}
