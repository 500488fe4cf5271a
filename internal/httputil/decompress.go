package httputil

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/pierrec/lz4/v4"
)

// DecompressPayload replaces the body of requests compressed with brotli or
// lz4 with a reader decompressing it. Other bodies are passed as is.
func DecompressPayload(next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		switch r.Header.Get("Content-Encoding") {
		case "br":
			r.Body = io.NopCloser(brotli.NewReader(r.Body))
			r.Header.Del("Content-Encoding")
		case "lz4":
			r.Body = io.NopCloser(lz4.NewReader(r.Body))
			r.Header.Del("Content-Encoding")
		}

		next.ServeHTTP(w, r)
	})
}
