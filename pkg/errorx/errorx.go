// Package errorx implements coded errors for the HTTP surface. Error codes
// are registered once (usually from an init function next to the handlers)
// and resolved back to an HTTP status and user-facing message when a
// response is written.
package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Coder describes an error code: the business code, the HTTP status it maps
// to, and the external (user-safe) message.
type Coder interface {
	// Code returns the integer business code.
	Code() int
	// HTTPStatus returns the associated HTTP status code.
	HTTPStatus() int
	// String returns the external message shown to API consumers.
	String() string
}

type defaultCoder struct {
	code   int
	status int
	msg    string
}

func (c defaultCoder) Code() int       { return c.code }
func (c defaultCoder) HTTPStatus() int { return c.status }
func (c defaultCoder) String() string  { return c.msg }

// NewCoder builds a Coder from its parts.
func NewCoder(code, status int, msg string) Coder {
	return defaultCoder{code: code, status: status, msg: msg}
}

var (
	codeMu sync.Mutex
	codes  = map[int]Coder{}
)

// unknownCoder is returned by ParseCoder for errors without a registered code.
var unknownCoder = defaultCoder{
	code:   1,
	status: http.StatusInternalServerError,
	msg:    "An internal server error occurred",
}

// MustRegister registers a Coder and panics on a duplicate code. Duplicate
// codes are a programming error, not a runtime condition.
func MustRegister(coder Coder) {
	if coder.Code() == unknownCoder.code {
		panic(fmt.Sprintf("code %d is reserved as the unknown error code", unknownCoder.code))
	}
	codeMu.Lock()
	defer codeMu.Unlock()
	if _, exists := codes[coder.Code()]; exists {
		panic(fmt.Sprintf("code %d is already registered", coder.Code()))
	}
	codes[coder.Code()] = coder
}

// withCode is an error annotated with a business code.
type withCode struct {
	err  error
	code int
}

func (w *withCode) Error() string {
	if w.err != nil {
		return w.err.Error()
	}
	if coder, ok := lookup(w.code); ok {
		return coder.String()
	}
	return unknownCoder.String()
}

func (w *withCode) Unwrap() error { return w.err }

// WithCode creates a new coded error from a format string.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{
		err:  fmt.Errorf(format, args...),
		code: code,
	}
}

// WrapC wraps an existing error with a code and context message.
func WrapC(err error, code int, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{
		err:  fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err),
		code: code,
	}
}

// ParseCoder resolves the Coder of an error. Any error in the chain carrying
// a registered code wins; everything else maps to the unknown coder.
func ParseCoder(err error) Coder {
	for err != nil {
		var wc *withCode
		if errors.As(err, &wc) {
			if coder, ok := lookup(wc.code); ok {
				return coder
			}
			return unknownCoder
		}
		err = errors.Unwrap(err)
	}
	return unknownCoder
}

// IsCode reports whether any error in the chain carries the given code.
func IsCode(err error, code int) bool {
	var wc *withCode
	for errors.As(err, &wc) {
		if wc.code == code {
			return true
		}
		err = errors.Unwrap(wc.err)
		if err == nil {
			return false
		}
	}
	return false
}

func lookup(code int) (Coder, bool) {
	codeMu.Lock()
	defer codeMu.Unlock()
	c, ok := codes[code]
	return c, ok
}
