// Package viewer models the document viewing surface: which of the four
// presentation states applies, the zoom factor, and the fullscreen flag. It
// consumes poller updates; it performs no requests of its own.
package viewer

import (
	"github.com/planpress/planpress/internal/client"
	"github.com/planpress/planpress/internal/model"
)

// State enumerates what the viewing surface shows.
type State int

const (
	// StateLoading: no URL resolved yet and no status known.
	StateLoading State = iota
	// StateInProgress: document is a draft; a manual re-check is offered.
	StateInProgress
	// StateError: no renderable URL (invalid, or absent without draft status).
	StateError
	// StateReady: a valid URL is available for rendering.
	StateReady
)

// Zoom bounds and step, in percent.
const (
	ZoomMin  = 60
	ZoomMax  = 200
	ZoomStep = 20
)

// Viewer holds the presentation state for one document.
type Viewer struct {
	documentID string
	status     model.DocumentStatus
	url        string
	errMsg     string
	zoom       int
	fullscreen bool
}

// New starts in the loading state at 100% zoom.
func New(documentID string) *Viewer {
	return &Viewer{documentID: documentID, zoom: 100}
}

// DocumentID returns the document this viewer tracks.
func (v *Viewer) DocumentID() string { return v.documentID }

// Apply folds a poller update into the view.
func (v *Viewer) Apply(u client.Update) {
	if u.Document != nil {
		v.status = u.Document.Status
	}
	if u.URL != "" {
		v.url = u.URL
	}
	if u.Err != nil {
		v.errMsg = client.UserMessage(u.Err)
		return
	}
	v.errMsg = ""
}

// State derives the presentation state from what has been applied so far.
func (v *Viewer) State() State {
	switch {
	case v.url != "":
		return StateReady
	case v.errMsg != "":
		return StateError
	case v.status == model.StatusDraft:
		return StateInProgress
	case v.status == "":
		return StateLoading
	default:
		return StateError
	}
}

// URL returns the resolved artifact URL, or "".
func (v *Viewer) URL() string { return v.url }

// Status returns the last observed document status.
func (v *Viewer) Status() model.DocumentStatus { return v.status }

// ErrMsg returns the user-facing error message, or "".
func (v *Viewer) ErrMsg() string { return v.errMsg }

// Zoom returns the current zoom percentage.
func (v *Viewer) Zoom() int { return v.zoom }

// ZoomIn raises zoom one step, clamped at the maximum.
func (v *Viewer) ZoomIn() int {
	v.zoom += ZoomStep
	if v.zoom > ZoomMax {
		v.zoom = ZoomMax
	}
	return v.zoom
}

// ZoomOut lowers zoom one step, clamped at the minimum.
func (v *Viewer) ZoomOut() int {
	v.zoom -= ZoomStep
	if v.zoom < ZoomMin {
		v.zoom = ZoomMin
	}
	return v.zoom
}

// Fullscreen toggles and reports the fullscreen request flag. Only the ready
// surface honors the request.
func (v *Viewer) SetFullscreen(on bool) {
	v.fullscreen = on && v.State() == StateReady
}

func (v *Viewer) Fullscreen() bool { return v.fullscreen }
