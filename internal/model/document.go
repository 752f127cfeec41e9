package model

import "time"

// DocumentStatus describes the generation lifecycle. Draft is the only
// non-terminal state; once a document reaches success or failure it never
// transitions again.
type DocumentStatus string

const (
	StatusDraft   DocumentStatus = "draft"
	StatusSuccess DocumentStatus = "success"
	StatusFailure DocumentStatus = "failure"
)

// Terminal reports whether the status is past draft.
func (s DocumentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Document is the handle returned on submission and from status checks. URL
// fields stay null until generation succeeds.
type Document struct {
	ID          string         `json:"id"`
	TemplateID  string         `json:"-"`
	Status      DocumentStatus `json:"status"`
	DownloadURL *string        `json:"download_url"`
	PreviewURL  *string        `json:"preview_url"`
	ObjectKey   string         `json:"-"`
	Message     string         `json:"-"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
}

// ViewableURL resolves the artifact URL, preferring download over preview.
// Returns "" while no URL is available.
func (d Document) ViewableURL() string {
	if d.DownloadURL != nil && *d.DownloadURL != "" {
		return *d.DownloadURL
	}
	if d.PreviewURL != nil && *d.PreviewURL != "" {
		return *d.PreviewURL
	}
	return ""
}

// SubmissionPayload is the body of POST /api/pdf.
type SubmissionPayload struct {
	TemplateID string            `json:"template_id"`
	FormData   map[string]string `json:"formData"`
}
