package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthMismatch    = errors.New("password incorrect")
	ErrSynthesisFailed = errors.New("speech synthesis did not complete")
	ErrEmptyCompletion = errors.New("completion returned no text")
	ErrSessionNotFound = errors.New("session not found")
)

// TransportError marks a failure talking to one of the hosted services.
// It ends the current run but never the process.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(service string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Service: service, Err: err}
}
