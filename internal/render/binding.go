package render

import (
	"sync"

	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
)

// VectorDrawing - целевая поверхность для штрихкода
type VectorDrawing struct {
	mu     sync.RWMutex
	markup string
	width  int
	height int
}

// Clear удаляет ранее нарисованные штрихи
func (d *VectorDrawing) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markup, d.width, d.height = "", 0, 0
}

func (d *VectorDrawing) set(markup string, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markup, d.width, d.height = markup, width, height
}

// Snapshot возвращает текущую разметку; ok=false, если поверхность пуста
func (d *VectorDrawing) Snapshot() (string, int, int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.markup, d.width, d.height, d.markup != ""
}

// Binding перерисовывает штрихкод при изменении полей, от которых он зависит
type Binding struct {
	mu       sync.Mutex
	revision uint64
	drawing  *VectorDrawing
	log      logger.Logger
}

func NewBinding(log logger.Logger) *Binding {
	return &Binding{drawing: &VectorDrawing{}, log: log}
}

func (b *Binding) Drawing() *VectorDrawing {
	return b.drawing
}

// barcodeFields - поля, изменение которых требует перерисовки
var barcodeFields = map[models.Field]bool{
	models.FieldPayload:    true,
	models.FieldFormat:     true,
	models.FieldForeground: true,
	models.FieldBackground: true,
	models.FieldKind:       true,
}

// Handle - подписчик на изменения формы
func (b *Binding) Handle(state models.FormState, changed []models.Field) {
	for _, f := range changed {
		if barcodeFields[f] {
			b.Redraw(state)
			return
		}
	}
}

// Redraw заменяет штрихкод нарисованным по state. Снимок старше уже
// нарисованного пропускается. Ошибка кодировщика только пишется в лог,
// поверхность остается пустой.
func (b *Binding) Redraw(state models.FormState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if state.Revision < b.revision {
		b.log.Debugf("Skip stale barcode redraw: revision %d < %d", state.Revision, b.revision)
		return
	}
	b.revision = state.Revision

	if state.Kind != models.KindBarcode {
		b.drawing.Clear()
		return
	}

	spec := BarcodeSpecFrom(state)
	markup, width, height, err := BarcodeSVG(spec)
	if err != nil {
		b.log.Errorf("Barcode render failed for %s %q: %v", spec.Format, spec.Payload, err)
		b.drawing.Clear()
		return
	}
	b.drawing.set(markup, width, height)
}
