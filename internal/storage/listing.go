package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Listing is one listing response with its records still undecoded
type Listing struct {
	Records    []json.RawMessage
	Page       int
	TotalPages int
	Paginated  bool
}

type listingEnvelope struct {
	Images     json.RawMessage `json:"images"`
	Data       json.RawMessage `json:"data"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// ListAll fetches every stored record
func (c *Client) ListAll(ctx context.Context) (*Listing, error) {
	return c.getListing(ctx, c.baseURL+listPath, "all", false)
}

// ListPage fetches one page of records
func (c *Client) ListPage(ctx context.Context, page, limit int) (*Listing, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	listing, err := c.getListing(ctx, c.baseURL+paginatedListPath+"?"+query.Encode(), fmt.Sprintf("page:%d:%d", page, limit), true)
	if err != nil {
		return nil, err
	}
	if listing.Page == 0 {
		listing.Page = page
	}
	return listing, nil
}

// getListing reads through the response cache; only responses that parse are cached
func (c *Client) getListing(ctx context.Context, endpoint, cacheKey string, paginated bool) (*Listing, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, cacheKey)
		if err != nil {
			slog.Warn("listing cache lookup failed", "key", cacheKey, "error", err)
		} else if ok {
			slog.Debug("listing cache hit", "key", cacheKey)
			return parseListing(cached, paginated)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing response: %w", err)
	}
	listing, err := parseListing(body, paginated)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body); err != nil {
			slog.Warn("failed to cache listing", "key", cacheKey, "error", err)
		}
	}
	return listing, nil
}

// parseListing accepts a bare array or an envelope with "images" or "data".
// An object carrying neither key is malformed.
func parseListing(body []byte, paginated bool) (*Listing, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err == nil {
		return &Listing{Records: records, Page: 1, TotalPages: 1, Paginated: paginated}, nil
	}

	var envelope listingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	list := envelope.Images
	if list == nil {
		list = envelope.Data
	}
	if list == nil {
		return nil, fmt.Errorf("%w: neither \"images\" nor \"data\" present", ErrMalformedResponse)
	}
	if err := json.Unmarshal(list, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	totalPages := envelope.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return &Listing{
		Records:    records,
		Page:       envelope.Page,
		TotalPages: totalPages,
		Paginated:  paginated,
	}, nil
}
