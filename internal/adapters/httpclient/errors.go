package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indica un timeout al hacer la request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string { return fmt.Errorf("timeout: %w", e.Err).Error() }
func (e ErrTimeout) Unwrap() error { return e.Err }

// ErrConnection indica un fallo de red.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string { return fmt.Errorf("connection: %w", e.Err).Error() }
func (e ErrConnection) Unwrap() error { return e.Err }

// ErrUnauthorized indica credenciales inválidas (HTTP 401).
type ErrUnauthorized struct {
	Err error
}

func (e ErrUnauthorized) Error() string { return fmt.Errorf("unauthorized: %w", e.Err).Error() }
func (e ErrUnauthorized) Unwrap() error { return e.Err }

// ErrForbidden indica una respuesta HTTP 403.
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string { return fmt.Errorf("forbidden: %w", e.Err).Error() }
func (e ErrForbidden) Unwrap() error { return e.Err }

// ErrNotFound indica un recurso inexistente (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string { return fmt.Errorf("not_found: %w", e.Err).Error() }
func (e ErrNotFound) Unwrap() error { return e.Err }

// ErrRateLimited indica que la fuente limitó la request (HTTP 429).
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string { return fmt.Errorf("rate_limited: %w", e.Err).Error() }
func (e ErrRateLimited) Unwrap() error { return e.Err }

// ErrServer indica un 5xx que persistió tras los reintentos.
type ErrServer struct {
	Err error
}

func (e ErrServer) Error() string { return fmt.Errorf("server: %w", e.Err).Error() }
func (e ErrServer) Unwrap() error { return e.Err }

// Classify envuelve err (o un status HTTP) en el tipo de error correspondiente.
// Devuelve err sin tocar si no encaja en ninguna categoría.
func Classify(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized{Err: wrapped}
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		if statusCode >= 500 {
			return ErrServer{Err: wrapped}
		}
	}
	return err
}

// ErrorTypeLabel devuelve la etiqueta de métricas para un error clasificado.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var unauthorized ErrUnauthorized
	if errors.As(err, &unauthorized) {
		return "unauthorized"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var server ErrServer
	if errors.As(err, &server) {
		return "server"
	}
	return "other"
}
