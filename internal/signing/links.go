package signing

import (
	"fmt"
	"net/url"
	"time"
)

// LinkBuilder mints signed document view URLs served by the API itself. It
// covers deployments where artifact storage cannot presign its own URLs, and
// provides the preview link in all modes.
type LinkBuilder struct {
	base   string
	signer *Signer
	ttl    time.Duration
}

// NewLinkBuilder trims a trailing slash off base so joined paths stay clean.
func NewLinkBuilder(base string, signer *Signer, ttl time.Duration) *LinkBuilder {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return &LinkBuilder{base: base, signer: signer, ttl: ttl}
}

// ViewURL returns a signed URL for GET /api/pdf/view/{id}.
func (b *LinkBuilder) ViewURL(documentID string) string {
	expires := time.Now().Add(b.ttl).Unix()
	sig := b.signer.Sign(documentID, expires)
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", expires))
	q.Set("sig", sig)
	return fmt.Sprintf("%s/api/pdf/view/%s?%s", b.base, url.PathEscape(documentID), q.Encode())
}
