package viewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planpress/planpress/internal/client"
	"github.com/planpress/planpress/internal/model"
)

func TestStateTransitions(t *testing.T) {
	v := New("doc-1")
	assert.Equal(t, StateLoading, v.State())

	v.Apply(client.Update{Document: &model.Document{ID: "doc-1", Status: model.StatusDraft}})
	assert.Equal(t, StateInProgress, v.State())

	// Transient check failure shows an error, the next clean draft update
	// clears it.
	v.Apply(client.Update{Err: errors.New("flaky")})
	assert.Equal(t, StateError, v.State())
	assert.NotEmpty(t, v.ErrMsg())

	v.Apply(client.Update{Document: &model.Document{ID: "doc-1", Status: model.StatusDraft}})
	assert.Equal(t, StateInProgress, v.State())
	assert.Empty(t, v.ErrMsg())

	v.Apply(client.Update{
		Document: &model.Document{ID: "doc-1", Status: model.StatusSuccess},
		URL:      "https://files.example.com/doc-1.pdf",
	})
	assert.Equal(t, StateReady, v.State())
	assert.Equal(t, "https://files.example.com/doc-1.pdf", v.URL())
}

func TestFailureWithoutURLIsError(t *testing.T) {
	v := New("doc-1")
	v.Apply(client.Update{
		Document: &model.Document{ID: "doc-1", Status: model.StatusFailure},
		Err:      &client.PollError{Status: model.StatusFailure},
	})
	assert.Equal(t, StateError, v.State())
}

func TestInvalidURLNeverReachesReady(t *testing.T) {
	v := New("doc-1")
	v.Apply(client.Update{
		Document: &model.Document{ID: "doc-1", Status: model.StatusSuccess},
		Err:      &client.InvalidURLError{URL: "not-a-url"},
	})
	assert.Equal(t, StateError, v.State())
	assert.Empty(t, v.URL())
}

func TestZoomClamping(t *testing.T) {
	v := New("doc-1")
	assert.Equal(t, 100, v.Zoom())

	for i := 0; i < 10; i++ {
		v.ZoomIn()
	}
	assert.Equal(t, ZoomMax, v.Zoom())

	for i := 0; i < 20; i++ {
		v.ZoomOut()
	}
	assert.Equal(t, ZoomMin, v.Zoom())

	assert.Equal(t, 80, v.ZoomIn())
}

func TestFullscreenOnlyWhenReady(t *testing.T) {
	v := New("doc-1")
	v.SetFullscreen(true)
	assert.False(t, v.Fullscreen())

	v.Apply(client.Update{
		Document: &model.Document{ID: "doc-1", Status: model.StatusSuccess},
		URL:      "https://files.example.com/doc-1.pdf",
	})
	v.SetFullscreen(true)
	assert.True(t, v.Fullscreen())
	v.SetFullscreen(false)
	assert.False(t, v.Fullscreen())
}
