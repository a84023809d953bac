// Package core holds helpers shared by all HTTP handlers.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kiosk404/relayn/pkg/errorx"
	"github.com/kiosk404/relayn/pkg/logger"
)

// ErrResponse is the error body returned for failed requests.
type ErrResponse struct {
	// Code is the business error code.
	Code int `json:"code"`
	// Message is the user-safe error description.
	Message string `json:"message"`
}

// WriteResponse writes either an error response resolved through errorx or
// the success payload.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		coder := errorx.ParseCoder(err)
		logger.Warn("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:    coder.Code(),
			Message: coder.String(),
		})
		return
	}

	c.JSON(http.StatusOK, data)
}
