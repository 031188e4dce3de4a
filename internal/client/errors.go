package client

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorKind is a coarse failure class used for logging and user-facing status.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindTimeout      ErrorKind = "timeout"
	KindNetwork      ErrorKind = "network"
	KindUnauthorized ErrorKind = "unauthorized"
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindServer       ErrorKind = "server"
	KindDecode       ErrorKind = "decode"
	KindCanceled     ErrorKind = "canceled"
	KindUnknown      ErrorKind = "unknown"
)

// Classify maps an error returned by the client to an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return KindUnauthorized
		case apiErr.StatusCode == http.StatusNotFound:
			return KindNotFound
		case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
			return KindValidation
		case apiErr.StatusCode >= 500:
			return KindServer
		}
		return KindUnknown
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return KindValidation
	}
	if errors.Is(err, ErrDecode) {
		return KindDecode
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}

	return KindUnknown
}
