package proofs

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"auction-escrow/internal/biddingerrors"
)

// Resolver turns an opaque upload reference into a retrievable URL.
// The engine stores only references, never file contents.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// refPattern accepts object keys such as "payments/2026/05/receipt-01.png"
var refPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-/]{0,255}$`)

// URLResolver maps references onto a public object-storage base URL
type URLResolver struct {
	base *url.URL
}

// NewURLResolver validates baseURL and returns a resolver rooted at it
func NewURLResolver(baseURL string) (*URLResolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proof base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid proof base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &URLResolver{base: u}, nil
}

// Resolve checks the reference format and joins it onto the base URL
func (r *URLResolver) Resolve(_ context.Context, ref string) (string, error) {
	if !refPattern.MatchString(ref) || strings.Contains(ref, "..") {
		return "", fmt.Errorf("resolve %q: %w", ref, biddingerrors.ErrInvalidProof)
	}
	return r.base.JoinPath(ref).String(), nil
}
