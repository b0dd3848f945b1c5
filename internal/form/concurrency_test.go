package form

import (
	"fmt"
	"sync"
	"testing"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawnFor(t *testing.T, state models.FormState) string {
	want, _, _, err := render.BarcodeSVG(render.BarcodeSpecFrom(state))
	require.NoError(t, err)
	return want
}

func TestBinding_DelayedOlderNotification(t *testing.T) {
	c := NewController()
	c.SetKind(models.KindBarcode)

	entered := make(chan struct{})
	release := make(chan struct{})
	// первый подписчик задерживает оповещение о "AAAA"
	c.OnChange(func(state models.FormState, _ []models.Field) {
		if state.Payload == "AAAA" {
			close(entered)
			<-release
		}
	})
	binding := render.NewBinding(nopLogger{})
	c.OnChange(binding.Handle)

	done := make(chan struct{})
	go func() {
		c.SetPayload("AAAA")
		close(done)
	}()
	<-entered
	c.SetPayload("BBBB")
	close(release)
	<-done

	state := c.State()
	require.Equal(t, "BBBB", state.Payload)
	markup, _, _, ok := binding.Drawing().Snapshot()
	require.True(t, ok)
	assert.Equal(t, drawnFor(t, state), markup)
}

func TestBinding_ConcurrentUpdates(t *testing.T) {
	c := NewController()
	c.SetKind(models.KindBarcode)
	binding := render.NewBinding(nopLogger{})
	c.OnChange(binding.Handle)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.SetPayload(fmt.Sprintf("payload-%d", i))
			_, _, _, _ = binding.Drawing().Snapshot()
		}(i)
	}
	wg.Wait()

	markup, _, _, ok := binding.Drawing().Snapshot()
	require.True(t, ok)
	assert.Equal(t, drawnFor(t, c.State()), markup)
}

func TestRevisionGrowsOnlyOnChange(t *testing.T) {
	c := NewController()
	start := c.State().Revision

	c.SetPayload("x")
	assert.Equal(t, start+1, c.State().Revision)

	c.ClearLogoUpload()
	assert.Equal(t, start+1, c.State().Revision)

	require.Error(t, c.Apply(Patch{Kind: strPtr("pdf417")}))
	assert.Equal(t, start+1, c.State().Revision)
}
