package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/adsgram/backend/internal/apperr"
)

// maxBodyBytes caps request bodies read for validation.
const maxBodyBytes = 64 << 10

type BodyValidator interface {
	Validate(name string, body []byte) error
}

// ValidateBody rejects requests whose JSON body does not match the named
// schema. The body is restored for the next handler.
func ValidateBody(v BodyValidator, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				apperr.WriteStatus(w, http.StatusRequestEntityTooLarge, apperr.KindInvalidInput, "request body too large")
				return
			}
			if err := v.Validate(name, body); err != nil {
				apperr.Write(w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
