package dns

import (
	"context"
	"errors"
)

// Handler resolves one domain name to one address.
type Handler interface {
	Lookup(ctx context.Context, domain string) (string, error)
	String() string
}

var ErrNoAddress = errors.New("no address found")

type freshKey struct{}

// Fresh marks ctx so that HandlerOverCache ignores answers it already holds
// and asks its upstreams again. Lookups already in flight are still shared.
func Fresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func isFresh(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}
