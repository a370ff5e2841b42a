// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package medialist

import (
	"sync"

	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/handler"
)

// Delegate receives the events of a list. Both methods are required; the
// optional events are separate interfaces a delegate may also implement.
type Delegate interface {
	// OnMediaLoaded fires whenever the current page changes, whether the
	// page came from the network or from the list's cache.
	OnMediaLoaded(l *List, media []*entity.Media, links handler.Links)
	// OnError fires for every failed fetch.
	OnError(l *List, err error)
}

// FirstMediaLoader is notified once, when the first page arrives, before
// OnMediaLoaded fires with the same payload.
type FirstMediaLoader interface {
	OnFirstMediaLoaded(l *List, media []*entity.Media, links handler.Links)
}

// FirstLoadErrorHandler is notified, after OnError, when the first fetch
// fails.
type FirstLoadErrorHandler interface {
	OnFirstLoadError(l *List, err error)
}

// NewMediaLoader is notified when a page is fetched from the network after
// the first one. Cached pages do not trigger it.
type NewMediaLoader interface {
	OnNewMediaLoaded(l *List, media []*entity.Media, links handler.Links)
}

// OffsetChangeHandler is notified when the current page index changes.
type OffsetChangeHandler interface {
	OnOffsetChanged(l *List, newOffset, prevOffset int)
}

// serial runs queued functions one at a time. A function queued while
// another runs is executed by the goroutine already draining the queue, so
// a callback may call back into the list without deadlocking.
type serial struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (s *serial) run(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		next()
		s.mu.Lock()
	}
	s.running = false
	s.mu.Unlock()
}
