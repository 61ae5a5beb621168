package testutil

import (
	"context"
	"sync"

	"github.com/nhle/adminfeed/internal/model"
)

// FakeSource is an in-memory source.Source. Setting one of the *Err
// fields makes the corresponding fetch fail.
type FakeSource struct {
	mu sync.Mutex

	Contacts       []model.Contact
	PortfolioItems []model.PortfolioItem
	PageVisits     int

	ContactsErr   error
	PortfolioErr  error
	PageVisitsErr error

	Calls map[string]int
}

// NewFakeSource returns an empty FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{Calls: make(map[string]int)}
}

func (f *FakeSource) record(name string) {
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[name]++
}

// CallCount returns how many times the named method was invoked.
func (f *FakeSource) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}

// Update runs fn with the fake locked so tests can mutate fields safely.
func (f *FakeSource) Update(fn func(f *FakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *FakeSource) FetchContacts(ctx context.Context) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FetchContacts")
	if f.ContactsErr != nil {
		return nil, f.ContactsErr
	}
	return append([]model.Contact(nil), f.Contacts...), nil
}

func (f *FakeSource) FetchPortfolioItems(ctx context.Context) ([]model.PortfolioItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FetchPortfolioItems")
	if f.PortfolioErr != nil {
		return nil, f.PortfolioErr
	}
	return append([]model.PortfolioItem(nil), f.PortfolioItems...), nil
}

func (f *FakeSource) FetchPageVisitTotal(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FetchPageVisitTotal")
	if f.PageVisitsErr != nil {
		return 0, f.PageVisitsErr
	}
	return f.PageVisits, nil
}

func (f *FakeSource) ResetPageVisits(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ResetPageVisits")
	f.PageVisits = 0
	return nil
}
