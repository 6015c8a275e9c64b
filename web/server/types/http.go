package types

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"go.hackfix.me/dbmap/dbmap"
)

// Response is the common part of all API responses.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Render sets the response status.
func (e *Response) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	if e.Status == "" {
		e.Status = http.StatusText(e.StatusCode)
	}
	return nil
}

// ErrBadRequest returns a response for an invalid request.
func ErrBadRequest(err error) render.Renderer {
	return &Response{
		StatusCode: http.StatusBadRequest,
		Error:      err.Error(),
	}
}

// ErrResponse returns the response for a failed map operation.
func ErrResponse(err error) render.Renderer {
	return &Response{
		StatusCode: StatusCode(err),
		Error:      err.Error(),
	}
}

// StatusCode returns the HTTP status reported for a map operation error.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, dbmap.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dbmap.ErrEncodeFailed):
		return http.StatusBadRequest
	case errors.Is(err, dbmap.ErrInconsistent), errors.Is(err, dbmap.ErrDecodeFailed):
		return http.StatusInternalServerError
	case errors.Is(err, dbmap.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKind returns the map error kind reported by statusCode. It's the
// inverse of StatusCode, except that dbmap.ErrInconsistent is also reported as
// dbmap.ErrDecodeFailed, and any other status as dbmap.ErrUnavailable.
func ErrorKind(statusCode int) error {
	switch statusCode {
	case http.StatusNotFound:
		return dbmap.ErrNotFound
	case http.StatusBadRequest:
		return dbmap.ErrEncodeFailed
	case http.StatusInternalServerError:
		return dbmap.ErrDecodeFailed
	default:
		return dbmap.ErrUnavailable
	}
}
