package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/trinhly333/worksheet/pkg/httputil"
	"github.com/trinhly333/worksheet/pkg/pagination"
	"github.com/trinhly333/worksheet/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decode reads and validates a JSON body into dst, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("request body is required")
	}
	httputil.WriteValidationError(w, err)
	return false
}

// optionalQuery returns a pointer to the query value, or nil when absent.
func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func writePage[T any](w http.ResponseWriter, data []T, total int, params pagination.Params) {
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(data, total, params))
}
