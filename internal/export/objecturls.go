package export

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BlobScheme - префикс временных ссылок
const BlobScheme = "blob:"

type blob struct {
	mediaType string
	data      []byte
	created   time.Time
}

// ObjectURLs выдает временные ссылки blob:<uuid> на данные в памяти.
// Ссылка освобождается через Revoke, при однократном чтении через Take
// или сборщиком Sweep.
type ObjectURLs struct {
	blobs sync.Map // string -> blob
}

func NewObjectURLs() *ObjectURLs {
	return &ObjectURLs{}
}

// Create регистрирует данные и возвращает ссылку на них
func (o *ObjectURLs) Create(mediaType string, data []byte) string {
	ref := BlobScheme + uuid.NewString()
	o.blobs.Store(ref, blob{mediaType: mediaType, data: data, created: time.Now()})
	return ref
}

// Resolve возвращает данные по ссылке
func (o *ObjectURLs) Resolve(ref string) ([]byte, bool) {
	v, ok := o.blobs.Load(ref)
	if !ok {
		return nil, false
	}
	return v.(blob).data, true
}

// Take отдает данные и сразу освобождает ссылку
func (o *ObjectURLs) Take(ref string) (string, []byte, bool) {
	v, ok := o.blobs.LoadAndDelete(ref)
	if !ok {
		return "", nil, false
	}
	b := v.(blob)
	return b.mediaType, b.data, true
}

// Sweep освобождает ссылки старше maxAge и возвращает их количество
func (o *ObjectURLs) Sweep(maxAge time.Duration) int {
	deadline := time.Now().Add(-maxAge)
	n := 0
	o.blobs.Range(func(k, v any) bool {
		if v.(blob).created.Before(deadline) {
			o.blobs.Delete(k)
			n++
		}
		return true
	})
	return n
}

// RefID возвращает часть ссылки после blob:
func RefID(ref string) string {
	return strings.TrimPrefix(ref, BlobScheme)
}

// Revoke освобождает ссылку
func (o *ObjectURLs) Revoke(ref string) {
	o.blobs.Delete(ref)
}

// Live - количество неосвобожденных ссылок
func (o *ObjectURLs) Live() int {
	n := 0
	o.blobs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
