// Package client talks to the document generation API: template retrieval,
// submission, and status polling. All failures map onto a small error
// taxonomy that the caller collapses into one user-facing message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/planpress/planpress/internal/model"
)

// Client is a thin HTTP client over the API surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New trims a trailing slash off baseURL and applies options.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type templateEnvelope struct {
	Template  *model.Template         `json:"template"`
	Templates []model.TemplateSummary `json:"templates"`
}

type documentEnvelope struct {
	Document *model.Document `json:"document"`
}

// ListTemplates fetches the template summaries.
func (c *Client) ListTemplates(ctx context.Context) ([]model.TemplateSummary, error) {
	body, err := c.get(ctx, c.baseURL+"/api/templates?list=true")
	if err != nil {
		return nil, err
	}
	var env templateEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON"}
	}
	return env.Templates, nil
}

// GetTemplate fetches a full template definition by id.
func (c *Client) GetTemplate(ctx context.Context, id string) (model.Template, error) {
	body, err := c.get(ctx, c.baseURL+"/api/templates?id="+url.QueryEscape(id))
	if err != nil {
		var serverErr *ServerError
		if errors.As(err, &serverErr) && serverErr.Status == http.StatusNotFound {
			return model.Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return model.Template{}, err
	}
	var env templateEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Template == nil {
		return model.Template{}, &MalformedResponseError{Reason: "missing template field"}
	}
	// A template without steps or fields cannot drive a session; treat it the
	// same as absent.
	if len(env.Template.Sections) == 0 {
		return model.Template{}, fmt.Errorf("%w: %s has no steps", ErrTemplateNotFound, id)
	}
	return *env.Template, nil
}

// Submit posts the payload and returns the document handle. The returned
// document either carries at least one syntactically valid URL or is still a
// draft with no URL yet.
func (c *Client) Submit(ctx context.Context, payload model.SubmissionPayload) (*model.Document, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pdf", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	if err := checkURLSyntax(doc); err != nil {
		return nil, err
	}
	if doc.ViewableURL() == "" && doc.Status != model.StatusDraft {
		return nil, &MalformedResponseError{Reason: "document has no URL and is not a draft"}
	}
	return doc, nil
}

// GetStatus performs the one-shot status check. It is idempotent with the
// automatic poll; document status is monotonic server-side.
func (c *Client) GetStatus(ctx context.Context, documentID string) (*model.Document, error) {
	body, err := c.get(ctx, c.baseURL+"/api/pdf/status/"+url.PathEscape(documentID))
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ResolveURL picks the viewable URL (download over preview) and validates
// its syntax; invalid URLs surface as InvalidURLError instead of being
// handed to a viewer.
func ResolveURL(doc *model.Document) (string, error) {
	raw := doc.ViewableURL()
	if raw == "" {
		return "", &MalformedResponseError{Reason: "document has no URL"}
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &InvalidURLError{URL: raw}
	}
	return raw, nil
}

func parseDocument(body []byte) (*model.Document, error) {
	var env documentEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON"}
	}
	if env.Document == nil {
		return nil, &MalformedResponseError{Reason: "missing document field"}
	}
	if env.Document.ID == "" {
		return nil, &MalformedResponseError{Reason: "document has no id"}
	}
	return env.Document, nil
}

func checkURLSyntax(doc *model.Document) error {
	for _, u := range []*string{doc.DownloadURL, doc.PreviewURL} {
		if u == nil || *u == "" {
			continue
		}
		parsed, err := url.ParseRequestURI(*u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return &InvalidURLError{URL: *u}
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
