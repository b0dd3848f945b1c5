package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrPunder/codeform/internal/gzipcomp"
	"github.com/MrPunder/codeform/internal/logger"
)

// GzipCompressor is middleware compressor
type GzipCompressor struct {
	log logger.Logger
}

func NewGzipCompressor(log logger.Logger) *GzipCompressor {
	return &GzipCompressor{
		log: log,
	}
}

func (c *GzipCompressor) CompressHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			c.log.Debug("Detected gzip request body")

			body, err := gzipcomp.NewGzipCompressReader(r.Body)
			if err != nil {
				c.log.Errorf("Error reading gzip request body: %v", err)
				http.Error(w, "Invalid gzip body", http.StatusBadRequest)
				return
			}
			r.Body = body
			r.Header.Del("Content-Encoding")
			defer body.Close()
		}

		supportGzip := false
		for _, value := range r.Header.Values("Accept-Encoding") {
			if strings.Contains(value, "gzip") {
				supportGzip = true
				break
			}
		}

		if !supportGzip {
			next.ServeHTTP(w, r)
			return
		}

		rw := gzipcomp.NewGzipResponseWriter(w)
		next.ServeHTTP(rw, r)

		status := rw.Status()
		header := w.Header()
		if status >= 300 || rw.Len() == 0 || header.Get("Content-Encoding") != "" ||
			!gzipcomp.Compressible(header.Get("Content-Type")) {
			header.Set("Content-Length", strconv.Itoa(rw.Len()))
			w.WriteHeader(status)
			if _, err := rw.WriteTo(w); err != nil {
				c.log.Errorf("Error writing response: %v", err)
			}
			return
		}

		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")
		w.WriteHeader(status)

		cw := gzipcomp.NewGzipCompressWriter(w)
		defer cw.Close()
		if _, err := rw.WriteTo(cw); err != nil {
			c.log.Errorf("Error writing compressed response: %v", err)
		}
	})
}
