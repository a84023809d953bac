package v1

import (
	"net/http"

	"github.com/kiosk404/relayn/pkg/errorx"
)

// Relayn handler error codes.
// Code format: 1XXYYZ
//   - 1:  module prefix (relayn handler)
//   - XX: resource group (00=common, 01=plugins, 02=messagebox)
//   - YY: sequential error number
//   - Z:  reserved (0)

const (
	// Common request errors (100xxx).
	ErrBind       = 100001
	ErrValidation = 100002

	// Plugin errors (1001xx).
	ErrPluginNotFound   = 100101
	ErrPluginList       = 100102
	ErrEnableRequest    = 100103
	ErrPluginBadRequest = 100104

	// Messagebox errors (1002xx).
	ErrMessageboxVacant   = 100201
	ErrMessageboxDispatch = 100202
)

func init() {
	// Common.
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	// Plugins.
	errorx.MustRegister(newCoder(ErrPluginNotFound, http.StatusNotFound, "Plugin instance not found"))
	errorx.MustRegister(newCoder(ErrPluginList, http.StatusInternalServerError, "Failed to list plugin instances"))
	errorx.MustRegister(newCoder(ErrEnableRequest, http.StatusInternalServerError, "Failed to record enable request"))
	errorx.MustRegister(newCoder(ErrPluginBadRequest, http.StatusBadRequest, "Invalid plugin instance reference"))

	// Messagebox.
	errorx.MustRegister(newCoder(ErrMessageboxVacant, http.StatusServiceUnavailable, "No messagebox handler registered"))
	errorx.MustRegister(newCoder(ErrMessageboxDispatch, http.StatusInternalServerError, "Messagebox dispatch failed"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int       { return c.code }
func (c *coder) HTTPStatus() int { return c.http }
func (c *coder) String() string  { return c.msg }
