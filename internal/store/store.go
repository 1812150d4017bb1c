// Package store holds the requests and collections of a workspace and keeps
// the invariants between them: every request listed by a collection points
// back at it, the active request always exists and the last request can
// never be deleted.
package store

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"blitztest/internal/model"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	// ErrLastRequest is returned when deleting the only remaining request.
	ErrLastRequest = errors.New("cannot delete the last request")

	// ErrRequestNotFound is returned when an id names no request.
	ErrRequestNotFound = errors.New("request not found")

	// ErrCollectionNotFound is returned when an id names no collection.
	ErrCollectionNotFound = errors.New("collection not found")
)

// Store is the owner of workspace state. It is safe for concurrent use.
type Store struct {
	mu               sync.RWMutex
	logger           *log.Logger
	now              func() time.Time
	newID            func() string
	requests         []model.Request
	collections      []model.Collection
	activeRequest    string
	activeCollection string
	lastStamp        int64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp imported ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDs sets the generator for request, collection and history ids that are
// not derived from a timestamp.
func WithIDs(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New returns a Store seeded with a single empty request, which is active.
func New(options ...Option) *Store {
	s := &Store{
		logger: log.New(io.Discard),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}
	s.seed()
	return s
}

func (s *Store) seed() {
	req := model.NewRequest(s.newID())
	s.requests = []model.Request{req}
	s.collections = nil
	s.activeRequest = req.ID
	s.activeCollection = ""
}

// stamp returns a creation time strictly after the previous one at
// millisecond resolution, so timestamp derived ids never repeat.
func (s *Store) stamp() time.Time {
	ms := s.now().UnixMilli()
	if ms <= s.lastStamp {
		ms = s.lastStamp + 1
	}
	s.lastStamp = ms
	return time.UnixMilli(ms)
}

// =============================================================================
// Requests
// =============================================================================

// NewRequest appends an empty request and makes it active.
func (s *Store) NewRequest() model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := model.NewRequest(s.newID())
	s.requests = append(s.requests, req)
	s.activeRequest = req.ID
	return req.Clone()
}

// AddRequest appends req as is.
func (s *Store) AddRequest(req model.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req.Clone())
}

// UpdateRequest applies fn to the request with the given id. The id and
// collection back reference cannot be changed through fn.
func (s *Store) UpdateRequest(id string, fn func(*model.Request)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.requestIndex(id)
	if i == -1 {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}

	req := s.requests[i].Clone()
	fn(&req)
	req.ID = s.requests[i].ID
	req.CollectionID = s.requests[i].CollectionID
	s.requests[i] = req
	return nil
}

// RemoveRequest deletes a request and drops it from every collection. If it
// was active, the first remaining request becomes active.
func (s *Store) RemoveRequest(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.requestIndex(id)
	if i == -1 {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	if len(s.requests) <= 1 {
		s.logger.Debug("Refused to delete the last request", "id", id)
		return ErrLastRequest
	}

	s.requests = slices.Delete(s.requests, i, i+1)
	for c := range s.collections {
		s.collections[c].Requests = slices.DeleteFunc(s.collections[c].Requests, func(member string) bool {
			return member == id
		})
	}

	if s.activeRequest == id {
		s.activeRequest = s.requests[0].ID
	}
	return nil
}

// SetActiveRequest points the active request at id.
func (s *Store) SetActiveRequest(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requestIndex(id) == -1 {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	s.activeRequest = id
	return nil
}

// Requests returns a copy of every request in insertion order.
func (s *Store) Requests() []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Request, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req.Clone())
	}
	return out
}

// Request returns the request with the given id.
func (s *Store) Request(id string) (model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.requestIndex(id)
	if i == -1 {
		return model.Request{}, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return s.requests[i].Clone(), nil
}

// ActiveRequest returns the active request.
func (s *Store) ActiveRequest() model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.requestIndex(s.activeRequest); i != -1 {
		return s.requests[i].Clone()
	}
	return s.requests[0].Clone()
}

func (s *Store) requestIndex(id string) int {
	return slices.IndexFunc(s.requests, func(req model.Request) bool {
		return req.ID == id
	})
}

// =============================================================================
// Collections
// =============================================================================

// AddCollection appends col as is.
func (s *Store) AddCollection(col model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = append(s.collections, col.Clone())
}

// CreateCollection appends a new empty collection.
func (s *Store) CreateCollection(name, description string) model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := model.Collection{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		Requests:    []string{},
		CreatedAt:   s.now().UTC().Format(time.RFC3339Nano),
	}
	s.collections = append(s.collections, col)
	return col.Clone()
}

// UpdateCollection applies fn to the collection with the given id. Only the
// name and description may be changed through fn; membership goes through
// AddRequestToCollection and RemoveRequestFromCollection.
func (s *Store) UpdateCollection(id string, fn func(*model.Collection)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.collectionIndex(id)
	if i == -1 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}

	col := s.collections[i].Clone()
	fn(&col)
	s.collections[i].Name = col.Name
	s.collections[i].Description = col.Description
	return nil
}

// RemoveCollection deletes a collection. Its member requests are kept and
// detached.
func (s *Store) RemoveCollection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.collectionIndex(id)
	if i == -1 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}

	col := s.collections[i]
	for r := range s.requests {
		if s.requests[r].CollectionID == id || col.Contains(s.requests[r].ID) {
			s.requests[r].CollectionID = ""
		}
	}
	s.collections = slices.Delete(s.collections, i, i+1)

	if s.activeCollection == id {
		s.activeCollection = ""
	}
	return nil
}

// SetActiveCollection points the active collection at id. An empty id clears it.
func (s *Store) SetActiveCollection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.collectionIndex(id) == -1 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	s.activeCollection = id
	return nil
}

// AddRequestToCollection moves a request into a collection, taking it out of
// any collection it was in before. Adding a member again is a no-op.
func (s *Store) AddRequestToCollection(requestID, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.requestIndex(requestID)
	if r == -1 {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	c := s.collectionIndex(collectionID)
	if c == -1 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}

	for i := range s.collections {
		if i == c {
			continue
		}
		s.collections[i].Requests = slices.DeleteFunc(s.collections[i].Requests, func(member string) bool {
			return member == requestID
		})
	}
	if !s.collections[c].Contains(requestID) {
		s.collections[c].Requests = append(s.collections[c].Requests, requestID)
	}
	s.requests[r].CollectionID = collectionID
	return nil
}

// RemoveRequestFromCollection takes a request out of a collection and clears
// its back reference.
func (s *Store) RemoveRequestFromCollection(requestID, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.requestIndex(requestID)
	if r == -1 {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	c := s.collectionIndex(collectionID)
	if c == -1 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}

	s.collections[c].Requests = slices.DeleteFunc(s.collections[c].Requests, func(member string) bool {
		return member == requestID
	})
	if s.requests[r].CollectionID == collectionID {
		s.requests[r].CollectionID = ""
	}
	return nil
}

// Collections returns a copy of every collection in insertion order.
func (s *Store) Collections() []model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Collection, 0, len(s.collections))
	for _, col := range s.collections {
		out = append(out, col.Clone())
	}
	return out
}

// Collection returns the collection with the given id.
func (s *Store) Collection(id string) (model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.collectionIndex(id)
	if i == -1 {
		return model.Collection{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return s.collections[i].Clone(), nil
}

// CollectionRequests returns the members of a collection in index order.
// Ids that no longer resolve to a request are skipped.
func (s *Store) CollectionRequests(id string) ([]model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.collectionIndex(id)
	if i == -1 {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}

	var out []model.Request
	for _, member := range s.collections[i].Requests {
		if r := s.requestIndex(member); r != -1 {
			out = append(out, s.requests[r].Clone())
		}
	}
	return out, nil
}

// ActiveCollection returns the active collection, if one is set.
func (s *Store) ActiveCollection() (model.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.collectionIndex(s.activeCollection)
	if i == -1 {
		return model.Collection{}, false
	}
	return s.collections[i].Clone(), true
}

func (s *Store) collectionIndex(id string) int {
	return slices.IndexFunc(s.collections, func(col model.Collection) bool {
		return col.ID == id
	})
}

// =============================================================================
// Snapshot / Restore
// =============================================================================

// Snapshot returns the full state for persistence.
func (s *Store) Snapshot() model.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws := model.Workspace{
		Requests:         make([]model.Request, 0, len(s.requests)),
		Collections:      make([]model.Collection, 0, len(s.collections)),
		ActiveRequest:    s.activeRequest,
		ActiveCollection: s.activeCollection,
	}
	for _, req := range s.requests {
		ws.Requests = append(ws.Requests, req.Clone())
	}
	for _, col := range s.collections {
		ws.Collections = append(ws.Collections, col.Clone())
	}
	return ws
}

// Restore replaces the full state with ws. A workspace without requests
// re-seeds the default request; dangling active pointers are repaired.
func (s *Store) Restore(ws model.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ws.Requests) == 0 {
		s.logger.Debug("Restored an empty workspace, seeding a new request")
		s.seed()
		for _, col := range ws.Collections {
			s.collections = append(s.collections, col.Clone())
		}
		return
	}

	s.requests = make([]model.Request, 0, len(ws.Requests))
	for _, req := range ws.Requests {
		s.requests = append(s.requests, req.Clone())
	}
	s.collections = make([]model.Collection, 0, len(ws.Collections))
	for _, col := range ws.Collections {
		s.collections = append(s.collections, col.Clone())
	}

	s.activeRequest = ws.ActiveRequest
	if s.requestIndex(s.activeRequest) == -1 {
		s.activeRequest = s.requests[0].ID
	}
	s.activeCollection = ws.ActiveCollection
	if s.collectionIndex(s.activeCollection) == -1 {
		s.activeCollection = ""
	}
}

// Export returns every request and collection in the native bundle schema.
func (s *Store) Export() model.Bundle {
	ws := s.Snapshot()
	return model.Bundle{Requests: ws.Requests, Collections: ws.Collections}
}
