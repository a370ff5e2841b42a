// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

/*
Package medialist pages through a scoped media collection.

A List walks the pages of one customer, stream, category or uploader
collection. Pages are fetched on demand and kept for the life of the list, so
moving back and forth over pages already seen never touches the network:

	Idle --StartFetching--> first fetch --ok--> Ready <--> next/previous fetch
	  ^                          |
	  +--------- error ----------+

A failed first fetch returns the list to Idle, so StartFetching may be called
again. A failed later fetch leaves the cached pages, the offset and the
pagination URLs exactly as they were.

At most one fetch is in flight per list. A fetch counts as running until its
completion events start, so a fetch is never overtaken by a later move. Calls
that cannot do anything (no page in that direction, or a fetch already
running) notify nothing and report ErrNoPage or ErrFetchInFlight on the
returned channel.

Delegate callbacks run outside the list's lock, one at a time per list. A
callback may call back into the list, but must not block on the channel of
an operation it starts: that operation's callbacks run after the current
callback returns.
*/
package medialist

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"

	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/handler"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/metrics"
	"github.com/tomtom215/olapic-go/internal/validation"
)

// DefaultMediaPerPage is the page size used when Options leaves it unset.
const DefaultMediaPerPage = 20

// Request parameters every page request carries.
const (
	sortParam  = "sort"
	countParam = "count"
)

var (
	// ErrNoPage reports a page move with nothing to move to.
	ErrNoPage = errors.New("medialist: no page in that direction")
	// ErrFetchInFlight reports a call made while another fetch is running.
	ErrFetchInFlight = errors.New("medialist: a fetch is already in flight")
	// ErrAlreadyStarted reports StartFetching on a list that has pages.
	ErrAlreadyStarted = errors.New("medialist: already started")
)

// ScopeKind is the kind of collection a list pages through.
type ScopeKind int

const (
	ScopeCustomer ScopeKind = iota
	ScopeStream
	ScopeCategory
	ScopeUploader
)

// String returns the scope name used in logs and metric labels.
func (k ScopeKind) String() string {
	switch k {
	case ScopeCustomer:
		return "customer"
	case ScopeStream:
		return "stream"
	case ScopeCategory:
		return "category"
	case ScopeUploader:
		return "uploader"
	default:
		return "unknown"
	}
}

// PageSource fetches one page of media.
type PageSource interface {
	GetMediaFromURL(ctx context.Context, rawURL string, params url.Values) (handler.Page, error)
}

// Options tune a list.
type Options struct {
	// Sorting of the collection. Empty means recent.
	Sorting entity.Sorting `json:"sorting" validate:"omitempty,sorting"`
	// MediaPerPage is the requested page size. Zero means DefaultMediaPerPage.
	MediaPerPage int `json:"media_per_page" validate:"gte=0,lte=100"`
	// Params are extra query parameters sent with every page request. They
	// never override sort or count.
	Params url.Values `json:"-"`
	// Delegate receives the list events. It may be nil.
	Delegate Delegate `json:"-"`
}

// List is a paginated cursor over one media collection.
type List struct {
	source  PageSource
	scope   ScopeKind
	scopeID string
	// resolve derives the initial URL on the first fetch when the list was
	// built from a bare id.
	resolve func(ctx context.Context) (string, error)

	sorting      entity.Sorting
	mediaPerPage int
	params       url.Values

	notify serial

	mu         sync.Mutex
	delegate   Delegate
	initialURL string
	currentURL string
	prevURL    string
	nextURL    string
	offset     int
	pages      []handler.Page
	fetching   bool
}

func newList(source PageSource, scope ScopeKind, scopeID, initialURL string, opts Options) (*List, error) {
	if err := validation.ValidateStruct(opts); err != nil {
		return nil, err
	}
	sorting := sortingOf(opts)
	perPage := opts.MediaPerPage
	if perPage == 0 {
		perPage = DefaultMediaPerPage
	}

	params := url.Values{}
	for k, v := range opts.Params {
		params[k] = append([]string(nil), v...)
	}
	params.Set(sortParam, string(sorting))
	params.Set(countParam, strconv.Itoa(perPage))

	return &List{
		source:       source,
		scope:        scope,
		scopeID:      scopeID,
		sorting:      sorting,
		mediaPerPage: perPage,
		params:       params,
		delegate:     opts.Delegate,
		initialURL:   initialURL,
	}, nil
}

// SetDelegate replaces the delegate. Events already queued go to the
// delegate that was set when they were queued.
func (l *List) SetDelegate(d Delegate) {
	l.mu.Lock()
	l.delegate = d
	l.mu.Unlock()
}

// ========================================
// Operations
// ========================================

// StartFetching loads the first page. It is only valid before any page has
// loaded; after a failed first fetch it may be called again.
func (l *List) StartFetching(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	l.mu.Lock()
	if l.fetching {
		l.mu.Unlock()
		return finished(done, ErrFetchInFlight)
	}
	if len(l.pages) > 0 {
		l.mu.Unlock()
		return finished(done, ErrAlreadyStarted)
	}
	l.fetching = true
	target := l.initialURL
	l.mu.Unlock()

	go func() {
		page, target, err := l.fetchFirst(ctx, target)

		l.mu.Lock()
		d := l.delegate
		if err != nil {
			l.mu.Unlock()
			l.fail(ctx, "first", err)
			l.notify.run(func() {
				l.settle()
				if d != nil {
					d.OnError(l, err)
					if h, ok := d.(FirstLoadErrorHandler); ok {
						h.OnFirstLoadError(l, err)
					}
				}
				finished(done, err)
			})
			return
		}
		page.Links.Self = selfOr(page, target)
		l.pages = append(l.pages, page)
		l.offset = 0
		l.currentURL = page.Links.Self
		l.nextURL = page.Links.Next
		l.prevURL = page.Links.Previous
		l.mu.Unlock()

		metrics.RecordMediaListPage(l.scope.String(), false)
		logging.Ctx(ctx).Debug().
			Str("scope", l.scope.String()).
			Int("media", len(page.Media)).
			Bool("has_next", page.Links.Next != "").
			Msg("First media page loaded")

		l.notify.run(func() {
			l.settle()
			if d != nil {
				if h, ok := d.(FirstMediaLoader); ok {
					h.OnFirstMediaLoaded(l, page.Media, page.Links)
				}
				d.OnMediaLoaded(l, page.Media, page.Links)
			}
			finished(done, nil)
		})
	}()
	return done
}

// fetchFirst resolves the initial URL if needed and fetches it.
func (l *List) fetchFirst(ctx context.Context, target string) (handler.Page, string, error) {
	if target == "" {
		if l.resolve == nil {
			return handler.Page{}, "", ErrNoPage
		}
		resolved, err := l.resolve(ctx)
		if err != nil {
			return handler.Page{}, "", err
		}
		l.mu.Lock()
		if l.initialURL == "" {
			l.initialURL = resolved
		}
		target = l.initialURL
		l.mu.Unlock()
	}
	page, err := l.source.GetMediaFromURL(ctx, target, l.requestParams())
	return page, target, err
}

// CanLoadNextPage reports whether LoadNextPage would move: a later page is
// cached or the API offers one, and no fetch is running.
func (l *List) CanLoadNextPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.fetching && len(l.pages) > 0 && (l.offset+1 < len(l.pages) || l.nextURL != "")
}

// LoadNextPage moves to the next page. A cached page is delivered before
// LoadNextPage returns, unless another callback of this list is running.
func (l *List) LoadNextPage(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	l.mu.Lock()
	if l.fetching {
		l.mu.Unlock()
		return finished(done, ErrFetchInFlight)
	}
	if len(l.pages) == 0 {
		l.mu.Unlock()
		return finished(done, ErrNoPage)
	}
	if l.offset+1 < len(l.pages) {
		prev := l.offset
		l.offset++
		page := l.pages[l.offset]
		l.currentURL = page.Links.Self
		d := l.delegate
		l.mu.Unlock()

		l.deliverCached(d, page, prev+1, prev, done)
		return done
	}
	if l.nextURL == "" {
		l.mu.Unlock()
		return finished(done, ErrNoPage)
	}
	l.fetching = true
	target := l.nextURL
	l.mu.Unlock()

	go func() {
		page, err := l.source.GetMediaFromURL(ctx, target, l.requestParams())

		l.mu.Lock()
		d := l.delegate
		if err != nil {
			l.mu.Unlock()
			l.fail(ctx, "next", err)
			l.notifyError(d, err, done)
			return
		}
		prev := l.offset
		page.Links.Self = selfOr(page, target)
		l.pages = append(l.pages, page)
		l.offset = len(l.pages) - 1
		newOffset := l.offset
		l.currentURL = page.Links.Self
		l.nextURL = page.Links.Next
		l.mu.Unlock()

		l.deliverNew(d, page, newOffset, prev, done)
	}()
	return done
}

// CanLoadPreviousPage reports whether LoadPreviousPage would move: an
// earlier page is cached, or the list sits on its first page and the API
// offers a previous one.
func (l *List) CanLoadPreviousPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.fetching && len(l.pages) > 0 && (l.offset > 0 || l.prevURL != "")
}

// LoadPreviousPage moves to the previous page. Cached pages are served
// first; the API's previous link is only followed from the first cached
// page. A page fetched that way is put in front of the cache: every cached
// page moves up one index and the offset stays 0.
func (l *List) LoadPreviousPage(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	l.mu.Lock()
	if l.fetching {
		l.mu.Unlock()
		return finished(done, ErrFetchInFlight)
	}
	if len(l.pages) == 0 {
		l.mu.Unlock()
		return finished(done, ErrNoPage)
	}
	if l.offset > 0 {
		prev := l.offset
		l.offset--
		page := l.pages[l.offset]
		l.currentURL = page.Links.Self
		d := l.delegate
		l.mu.Unlock()

		l.deliverCached(d, page, prev-1, prev, done)
		return done
	}
	if l.prevURL == "" {
		l.mu.Unlock()
		return finished(done, ErrNoPage)
	}
	l.fetching = true
	target := l.prevURL
	l.mu.Unlock()

	go func() {
		page, err := l.source.GetMediaFromURL(ctx, target, l.requestParams())

		l.mu.Lock()
		d := l.delegate
		if err != nil {
			l.mu.Unlock()
			l.fail(ctx, "previous", err)
			l.notifyError(d, err, done)
			return
		}
		page.Links.Self = selfOr(page, target)
		l.pages = append([]handler.Page{page}, l.pages...)
		l.offset = 0
		l.currentURL = page.Links.Self
		l.prevURL = page.Links.Previous
		l.mu.Unlock()

		// The page that was at index 0 is now at index 1.
		l.deliverNew(d, page, 0, 1, done)
	}()
	return done
}

func (l *List) deliverCached(d Delegate, page handler.Page, newOffset, prevOffset int, done chan error) {
	metrics.RecordMediaListPage(l.scope.String(), true)
	l.notify.run(func() {
		if d != nil {
			d.OnMediaLoaded(l, page.Media, page.Links)
			if h, ok := d.(OffsetChangeHandler); ok {
				h.OnOffsetChanged(l, newOffset, prevOffset)
			}
		}
		finished(done, nil)
	})
}

func (l *List) deliverNew(d Delegate, page handler.Page, newOffset, prevOffset int, done chan error) {
	metrics.RecordMediaListPage(l.scope.String(), false)
	l.notify.run(func() {
		l.settle()
		if d != nil {
			if h, ok := d.(NewMediaLoader); ok {
				h.OnNewMediaLoaded(l, page.Media, page.Links)
			}
			d.OnMediaLoaded(l, page.Media, page.Links)
			if h, ok := d.(OffsetChangeHandler); ok {
				h.OnOffsetChanged(l, newOffset, prevOffset)
			}
		}
		finished(done, nil)
	})
}

func (l *List) notifyError(d Delegate, err error, done chan error) {
	l.notify.run(func() {
		l.settle()
		if d != nil {
			d.OnError(l, err)
		}
		finished(done, err)
	})
}

// settle ends the running fetch. It runs as the first step of the fetch's
// queued completion, so no later move is delivered ahead of that completion.
func (l *List) settle() {
	l.mu.Lock()
	l.fetching = false
	l.mu.Unlock()
}

func (l *List) fail(ctx context.Context, phase string, err error) {
	metrics.RecordMediaListError(l.scope.String(), phase)
	if !errors.Is(err, context.Canceled) {
		logging.Ctx(ctx).Warn().Err(err).
			Str("component", "medialist").
			Str("scope", l.scope.String()).
			Str("scope_id", l.scopeID).
			Str("phase", phase).
			Msg("Media page fetch failed")
	}
}

// requestParams returns a copy of the per-request query parameters.
func (l *List) requestParams() url.Values {
	out := make(url.Values, len(l.params))
	for k, v := range l.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func finished(done chan error, err error) chan error {
	done <- err
	close(done)
	return done
}

func selfOr(page handler.Page, fallback string) string {
	if page.Links.Self != "" {
		return page.Links.Self
	}
	return fallback
}

// ========================================
// Accessors
// ========================================

// Fetching reports whether a fetch is in flight.
func (l *List) Fetching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetching
}

// CurrentPage returns the page at the current offset.
func (l *List) CurrentPage() (handler.Page, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pages) == 0 {
		return handler.Page{}, false
	}
	return l.pages[l.offset], true
}

// CurrentPageMedia returns the media of the current page, or nil before the
// first page has loaded.
func (l *List) CurrentPageMedia() []*entity.Media {
	page, ok := l.CurrentPage()
	if !ok {
		return nil
	}
	return append([]*entity.Media(nil), page.Media...)
}

// Media returns the media of every cached page in page order.
func (l *List) Media() []*entity.Media {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*entity.Media
	for _, p := range l.pages {
		out = append(out, p.Media...)
	}
	return out
}

// Pages returns a copy of the page cache.
func (l *List) Pages() []handler.Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]handler.Page(nil), l.pages...)
}

// CurrentOffset returns the index of the current page.
func (l *List) CurrentOffset() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// InitialURL returns the URL of the first page request. For lists built from
// a bare id it is empty until the first fetch resolves it.
func (l *List) InitialURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialURL
}

// CurrentURL returns the self link of the current page, or the URL it was
// requested with when the API sent no self link.
func (l *List) CurrentURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentURL
}

// NextURL returns the API link after the last cached page.
func (l *List) NextURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextURL
}

// PrevURL returns the API link before the first cached page.
func (l *List) PrevURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prevURL
}

// Sorting returns the collection order.
func (l *List) Sorting() entity.Sorting { return l.sorting }

// MediaPerPage returns the requested page size.
func (l *List) MediaPerPage() int { return l.mediaPerPage }

// Scope returns the kind of collection.
func (l *List) Scope() ScopeKind { return l.scope }

// ScopeID returns the id of the customer, stream, category or uploader.
func (l *List) ScopeID() string { return l.scopeID }
