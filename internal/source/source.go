package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/adminfeed/internal/model"
)

// AuthError indicates that the bearer credential is missing, expired or
// rejected. Callers treat it as "no data available", never as an empty
// collection.
type AuthError struct {
	Resource string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Resource, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// HTTPError is returned for any other non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// MalformedError indicates a response whose shape did not match the
// expected payload, e.g. an object where a list was expected.
type MalformedError struct {
	Path   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Path, e.Reason)
}

// IsMalformed reports whether err (or any error in its chain) is a MalformedError.
func IsMalformed(err error) bool {
	var malformed *MalformedError
	return errors.As(err, &malformed)
}

// Source is the boundary to the site's admin REST API. Implementations
// return an error rather than an empty collection when a fetch fails.
type Source interface {
	// FetchContacts returns every contact inquiry.
	FetchContacts(ctx context.Context) ([]model.Contact, error)

	// FetchPortfolioItems returns every portfolio item.
	FetchPortfolioItems(ctx context.Context) ([]model.PortfolioItem, error)

	// FetchPageVisitTotal returns the site-wide page-visit counter.
	FetchPageVisitTotal(ctx context.Context) (int, error)

	// ResetPageVisits sets the page-visit counter back to zero.
	ResetPageVisits(ctx context.Context) error
}
