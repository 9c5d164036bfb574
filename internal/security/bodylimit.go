package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/dinein-kiosk/internal/common"
)

// DefaultBodyLimit caps order and payment payloads.
const DefaultBodyLimit = 64 << 10

// BodyLimit rejects request bodies larger than Max bytes with 413. The body is
// read up front so handlers see either the whole payload or nothing.
type BodyLimit struct {
	Max int64
}

// Middleware implements chi middleware.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			writeTooLarge(w)
			return
		}
		buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.Max))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeTooLarge(w)
				return
			}
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func writeTooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeValidation, "request entity too large", nil)
}
