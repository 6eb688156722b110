package fetch

import (
	"context"
	"fmt"
	"strings"
)

// Fetcher retrieves the raw bytes of a document by its opaque ref
// (URL or storage key).
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Router dispatches to a backend by ref scheme: s3:// refs go to the S3
// fetcher when one is configured, everything http(s) goes to the HTTP
// fetcher.
type Router struct {
	http Fetcher
	s3   Fetcher
}

func NewRouter(httpFetcher, s3Fetcher Fetcher) *Router {
	return &Router{http: httpFetcher, s3: s3Fetcher}
}

func (r *Router) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		if r.s3 == nil {
			return nil, fmt.Errorf("s3 ref %q but no s3 backend configured", ref)
		}
		return r.s3.Fetch(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.http.Fetch(ctx, ref)
	default:
		return nil, fmt.Errorf("unsupported document ref scheme: %q", ref)
	}
}
