package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/deephdc/demoapp/store"
)

// httpError carries a status code other than the default 400.
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string {
	return e.err.Error()
}

func (e *httpError) Unwrap() error {
	return e.err
}

func notFound(format string, args ...interface{}) error {
	return &httpError{code: http.StatusNotFound, err: fmt.Errorf(format, args...)}
}

// statusOf maps an error to its status: unknown resources are 404, and
// everything else, whatever its kind, is a bad request.
func statusOf(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.code
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

type errorResponse struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) int {
	code := statusOf(err)
	writeResp(w, errorResponse{
		Code:    code,
		Title:   http.StatusText(code),
		Message: err.Error(),
	}, code)
	return code
}

func writeResp(w http.ResponseWriter, resp interface{}, status int) {
	js, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}
