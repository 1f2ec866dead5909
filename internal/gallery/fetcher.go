// Package gallery fetches stored image records and keeps the gallery view state.
package gallery

import (
	"context"
	"log/slog"

	"github.com/jo-hoe/leafcollector/internal/storage"
)

// Lister is the listing side of the storage client
type Lister interface {
	ListAll(ctx context.Context) (*storage.Listing, error)
	ListPage(ctx context.Context, page, limit int) (*storage.Listing, error)
}

// Result is one decoded listing
type Result struct {
	Records    []ImageRecord
	Dropped    int
	Page       int
	TotalPages int
	Paginated  bool
}

// Fetcher retrieves records through the full or the paginated listing
type Fetcher struct {
	lister   Lister
	pageSize int
}

// NewFetcher uses the paginated listing when pageSize > 0
func NewFetcher(lister Lister, pageSize int) *Fetcher {
	return &Fetcher{lister: lister, pageSize: pageSize}
}

// Paginated reports whether the paginated listing is used
func (f *Fetcher) Paginated() bool {
	return f.pageSize > 0
}

// PageSize returns the configured page size, zero for the full listing
func (f *Fetcher) PageSize() int {
	return f.pageSize
}

// Fetch loads one page (ignored for the full listing) and decodes its records
func (f *Fetcher) Fetch(ctx context.Context, page int) (*Result, error) {
	var (
		listing *storage.Listing
		err     error
	)
	if f.Paginated() {
		listing, err = f.lister.ListPage(ctx, page, f.pageSize)
	} else {
		listing, err = f.lister.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	records, dropped := DecodeRecords(listing.Records)
	for _, dropErr := range dropped {
		slog.Warn("dropping malformed gallery record", "error", dropErr)
	}

	totalPages := listing.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return &Result{
		Records:    records,
		Dropped:    len(dropped),
		Page:       clampPage(listing.Page, totalPages),
		TotalPages: totalPages,
		Paginated:  f.Paginated(),
	}, nil
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
