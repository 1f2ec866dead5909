package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Status is the loading state of the gallery
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// PaginationState is derived from the last listing response
type PaginationState struct {
	Page       int
	PageSize   int
	TotalPages int
}

// Snapshot is a copy of the gallery state
type Snapshot struct {
	Status     Status
	Images     []ImageRecord
	Message    string
	Paginated  bool
	Pagination PaginationState
}

// HasNext reports whether a following page exists
func (s Snapshot) HasNext() bool {
	return s.Paginated && s.Pagination.Page < s.Pagination.TotalPages
}

// HasPrevious reports whether a preceding page exists
func (s Snapshot) HasPrevious() bool {
	return s.Paginated && s.Pagination.Page > 1
}

// Gallery holds the displayed records. Overlapping loads are not sequenced;
// the last response to arrive wins.
type Gallery struct {
	fetcher *Fetcher

	mu         sync.Mutex
	status     Status
	images     []ImageRecord
	message    string
	pagination PaginationState
}

// New creates an idle gallery on page 1
func New(fetcher *Fetcher) *Gallery {
	return &Gallery{
		fetcher: fetcher,
		status:  StatusIdle,
		pagination: PaginationState{
			Page:       1,
			PageSize:   fetcher.PageSize(),
			TotalPages: 1,
		},
	}
}

// Refresh reloads the current page
func (g *Gallery) Refresh(ctx context.Context) error {
	g.mu.Lock()
	page := g.pagination.Page
	g.mu.Unlock()
	return g.load(ctx, page)
}

// GoTo loads page, clamped to [1, totalPages]. Before the first successful load
// the page count is unknown and only the lower bound applies.
func (g *Gallery) GoTo(ctx context.Context, page int) error {
	g.mu.Lock()
	if g.status == StatusSuccess {
		page = clampPage(page, g.pagination.TotalPages)
	} else if page < 1 {
		page = 1
	}
	g.mu.Unlock()
	return g.load(ctx, page)
}

// Next moves one page forward; on the last page it does nothing
func (g *Gallery) Next(ctx context.Context) error {
	return g.step(ctx, 1)
}

// Previous moves one page back; on the first page it does nothing
func (g *Gallery) Previous(ctx context.Context) error {
	return g.step(ctx, -1)
}

func (g *Gallery) step(ctx context.Context, delta int) error {
	g.mu.Lock()
	current := g.pagination.Page
	target := clampPage(current+delta, g.pagination.TotalPages)
	g.mu.Unlock()

	if target == current {
		return nil
	}
	return g.load(ctx, target)
}

func (g *Gallery) load(ctx context.Context, page int) error {
	g.mu.Lock()
	g.status = StatusLoading
	g.mu.Unlock()

	result, err := g.fetcher.Fetch(ctx, page)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.status = StatusError
		g.images = nil
		g.message = fmt.Sprintf("Failed to fetch images: %v", err)
		slog.Error("gallery fetch failed", "page", page, "error", err)
		return err
	}

	g.status = StatusSuccess
	g.images = result.Records
	g.message = ""
	g.pagination = PaginationState{
		Page:       result.Page,
		PageSize:   g.fetcher.PageSize(),
		TotalPages: result.TotalPages,
	}
	slog.Debug("gallery loaded",
		"page", result.Page,
		"total_pages", result.TotalPages,
		"records", len(result.Records),
		"dropped", result.Dropped)
	return nil
}

// Snapshot returns a copy of the current state
func (g *Gallery) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	images := make([]ImageRecord, len(g.images))
	copy(images, g.images)
	return Snapshot{
		Status:     g.status,
		Images:     images,
		Message:    g.message,
		Paginated:  g.fetcher.Paginated(),
		Pagination: g.pagination,
	}
}
