package client

import (
	"errors"
	"fmt"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
)

// AppError is a well-formed backend answer with success=false. Message is
// the backend's text, passed through verbatim.
type AppError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

// TransportError covers requests that never produced a usable answer: the
// connection failed, or the body was not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed due to a network error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsApplication reports whether err is an *AppError.
func IsApplication(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is an *api.ValidationError.
func IsValidation(err error) bool {
	var ve *api.ValidationError
	return errors.As(err, &ve)
}
