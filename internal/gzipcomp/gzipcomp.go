// Package gzipcomp содержит обертки для gzip-сжатия тел запросов и ответов.
package gzipcomp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// compressibleTypes - типы ответов, которые имеет смысл сжимать; PNG уже сжат
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"application/json",
	"application/javascript",
	"image/svg+xml",
}

// Compressible сообщает, стоит ли сжимать ответ с данным Content-Type
func Compressible(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, t := range compressibleTypes {
		if strings.HasPrefix(ct, t) {
			return true
		}
	}
	return false
}

// GzipCompressWriter пишет сжатое тело в http.ResponseWriter
type GzipCompressWriter struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func NewGzipCompressWriter(w http.ResponseWriter) *GzipCompressWriter {
	return &GzipCompressWriter{
		ResponseWriter: w,
		zw:             gzip.NewWriter(w),
	}
}

func (gw *GzipCompressWriter) Write(b []byte) (int, error) {
	return gw.zw.Write(b)
}

func (gw *GzipCompressWriter) Close() error {
	return gw.zw.Close()
}

// GzipResponseWriter копит статус и тело ответа, пока не решено, сжимать ли его
type GzipResponseWriter struct {
	w      http.ResponseWriter
	status int
	buffer *bytes.Buffer
}

func NewGzipResponseWriter(w http.ResponseWriter) *GzipResponseWriter {
	return &GzipResponseWriter{
		w:      w,
		buffer: bytes.NewBuffer(nil),
	}
}

func (rw *GzipResponseWriter) Header() http.Header {
	return rw.w.Header()
}

func (rw *GzipResponseWriter) Write(data []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.buffer.Write(data)
}

func (rw *GzipResponseWriter) WriteHeader(statusCode int) {
	if rw.status == 0 {
		rw.status = statusCode
	}
}

// Status возвращает сохраненный код ответа (200, если обработчик его не задал)
func (rw *GzipResponseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *GzipResponseWriter) Len() int {
	return rw.buffer.Len()
}

// WriteTo отправляет накопленное тело в wr
func (rw *GzipResponseWriter) WriteTo(wr io.Writer) (int64, error) {
	return rw.buffer.WriteTo(wr)
}

// GzipCompressReader распаковывает тело запроса
type GzipCompressReader struct {
	io.ReadCloser
	zr *gzip.Reader
}

func NewGzipCompressReader(r io.ReadCloser) (*GzipCompressReader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	return &GzipCompressReader{
		ReadCloser: r,
		zr:         zr,
	}, nil
}

func (gr *GzipCompressReader) Read(b []byte) (int, error) {
	return gr.zr.Read(b)
}

func (gr *GzipCompressReader) Close() error {
	if err := gr.ReadCloser.Close(); err != nil {
		return err
	}
	return gr.zr.Close()
}
