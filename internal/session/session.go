// Package session keeps per-user portal state between requests.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/pkg/models"
)

// ErrNoSession is returned for unknown or expired session IDs.
var ErrNoSession = errors.New("no such session")

// Store holds the live sessions.
type Store struct {
	sched     *async.Scheduler
	bannerTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*State
}

// NewStore returns an empty store. Banners created for its sessions hide
// after bannerTTL.
func NewStore(sched *async.Scheduler, bannerTTL time.Duration) *Store {
	return &Store{
		sched:     sched,
		bannerTTL: bannerTTL,
		sessions:  make(map[string]*State),
	}
}

// Create starts a session for user.
func (s *Store) Create(user models.User) *State {
	st := &State{
		id:        uuid.NewString(),
		user:      user,
		sched:     s.sched,
		bannerTTL: s.bannerTTL,
		decisions: make(map[string]models.RecordedDecision),
		dismissed: make(map[string]bool),
		inFlight:  make(map[access.Page]bool),
		banners:   make(map[access.Page]*async.Banner),
		transfers: make(map[string]*async.Completion),
		submits:   make(map[access.Page]*async.Completion),
	}
	s.mu.Lock()
	s.sessions[st.id] = st
	s.mu.Unlock()
	return st
}

// Get looks up a session.
func (s *Store) Get(id string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return st, nil
}

// Delete ends a session and cancels its pending work.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	st, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	st.Close()
	return nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close ends every session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*State)
	s.mu.Unlock()
	for _, st := range sessions {
		st.Close()
	}
}

// State is one signed-in user's view of the portal. Everything recorded
// here is local to the session and lost when it ends.
type State struct {
	id        string
	user      models.User
	sched     *async.Scheduler
	bannerTTL time.Duration

	mu        sync.Mutex
	files     []models.UploadedFile
	transfers map[string]*async.Completion
	uploads   []models.Upload
	decisions map[string]models.RecordedDecision
	dismissed map[string]bool
	inFlight  map[access.Page]bool
	submits   map[access.Page]*async.Completion
	banners   map[access.Page]*async.Banner
}

// ID returns the session ID.
func (st *State) ID() string { return st.id }

// User returns the signed-in user.
func (st *State) User() models.User { return st.user }

// AddFile appends a file to the upload form. c, if non-nil, is its pending
// transfer and is cancelled when the file is removed.
func (st *State) AddFile(f models.UploadedFile, c *async.Completion) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.files = append(st.files, f)
	if c != nil {
		st.transfers[f.ID] = c
	}
}

// TrackTransfer attaches a pending transfer to a file that is still
// uploading. Transfers that already finished are ignored.
func (st *State) TrackTransfer(id string, c *async.Completion) {
	st.mu.Lock()
	defer st.mu.Unlock()
	i := slices.IndexFunc(st.files, func(x models.UploadedFile) bool { return x.ID == id })
	if i >= 0 && st.files[i].Status == models.FileUploading {
		st.transfers[id] = c
	}
}

// UpdateFile replaces the stored copy of f. It reports false when the file
// was removed in the meantime.
func (st *State) UpdateFile(f models.UploadedFile) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.transfers, f.ID)
	i := slices.IndexFunc(st.files, func(x models.UploadedFile) bool { return x.ID == f.ID })
	if i < 0 {
		return false
	}
	st.files[i] = f
	return true
}

// RemoveFile drops a file from the upload form, cancelling its transfer.
func (st *State) RemoveFile(id string) bool {
	st.mu.Lock()
	i := slices.IndexFunc(st.files, func(x models.UploadedFile) bool { return x.ID == id })
	if i >= 0 {
		st.files = slices.Delete(st.files, i, i+1)
	}
	c := st.transfers[id]
	delete(st.transfers, id)
	st.mu.Unlock()

	if c != nil {
		c.Cancel()
	}
	return i >= 0
}

// Files returns the upload form's file list.
func (st *State) Files() []models.UploadedFile {
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.files)
}

// ClearFiles empties the upload form's file list.
func (st *State) ClearFiles() {
	st.mu.Lock()
	transfers := st.transfers
	st.files = nil
	st.transfers = make(map[string]*async.Completion)
	st.mu.Unlock()

	for _, c := range transfers {
		c.Cancel()
	}
}

// BeginSubmit marks a submission on page as in flight. It reports false if
// one already is.
func (st *State) BeginSubmit(page access.Page) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.inFlight[page] {
		return false
	}
	st.inFlight[page] = true
	return true
}

// TrackSubmit attaches the pending completion of page's in-flight
// submission. It is ignored once the submission has ended.
func (st *State) TrackSubmit(page access.Page, c *async.Completion) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.inFlight[page] {
		st.submits[page] = c
	}
}

// EndSubmit clears the in-flight mark for page.
func (st *State) EndSubmit(page access.Page) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.inFlight, page)
	delete(st.submits, page)
}

// Submitting reports whether a submission on page is in flight.
func (st *State) Submitting(page access.Page) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.inFlight[page]
}

// AddUpload records a submitted upload, newest first.
func (st *State) AddUpload(u models.Upload) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.uploads = slices.Insert(st.uploads, 0, u)
}

// Uploads returns the uploads submitted in this session, newest first.
func (st *State) Uploads() []models.Upload {
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.uploads)
}

// RecordDecision stores d, replacing any earlier decision on the request.
func (st *State) RecordDecision(d models.RecordedDecision) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.decisions[d.RequestID] = d
}

// Decision returns the decision recorded for a request, if any.
func (st *State) Decision(requestID string) (models.RecordedDecision, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	d, ok := st.decisions[requestID]
	return d, ok
}

// DismissAlert hides a dashboard alert for the rest of the session.
func (st *State) DismissAlert(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.dismissed[id] = true
}

// Dismissed reports whether the alert was dismissed.
func (st *State) Dismissed(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.dismissed[id]
}

// Banner returns the success banner of page, creating it on first use.
func (st *State) Banner(page access.Page) *async.Banner {
	st.mu.Lock()
	defer st.mu.Unlock()
	b, ok := st.banners[page]
	if !ok {
		b = async.NewBanner(st.sched, st.bannerTTL)
		st.banners[page] = b
	}
	return b
}

// Close cancels pending transfers and submissions and hides all banners.
func (st *State) Close() {
	st.ClearFiles()
	st.mu.Lock()
	submits := st.submits
	st.submits = make(map[access.Page]*async.Completion)
	clear(st.inFlight)
	banners := make([]*async.Banner, 0, len(st.banners))
	for _, b := range st.banners {
		banners = append(banners, b)
	}
	st.mu.Unlock()
	for _, c := range submits {
		c.Cancel()
	}
	for _, b := range banners {
		b.Dismiss()
	}
}

// View is an immutable copy of a State taken for one render.
type View struct {
	User       models.User                        `json:"user"`
	Files      []models.UploadedFile              `json:"files"`
	Uploads    []models.Upload                    `json:"uploads"`
	Decisions  map[string]models.RecordedDecision `json:"decisions"`
	Dismissed  map[string]bool                    `json:"dismissed"`
	Submitting map[access.Page]bool               `json:"submitting"`
	Banners    map[access.Page]async.Message      `json:"banners"`
}

// Snapshot copies the state. Only visible banners are included.
func (st *State) Snapshot() View {
	st.mu.Lock()
	v := View{
		User:       st.user,
		Files:      slices.Clone(st.files),
		Uploads:    slices.Clone(st.uploads),
		Decisions:  make(map[string]models.RecordedDecision, len(st.decisions)),
		Dismissed:  make(map[string]bool, len(st.dismissed)),
		Submitting: make(map[access.Page]bool, len(st.inFlight)),
		Banners:    make(map[access.Page]async.Message),
	}
	for k, d := range st.decisions {
		v.Decisions[k] = d
	}
	for k := range st.dismissed {
		v.Dismissed[k] = true
	}
	for k := range st.inFlight {
		v.Submitting[k] = true
	}
	banners := make(map[access.Page]*async.Banner, len(st.banners))
	for k, b := range st.banners {
		banners[k] = b
	}
	st.mu.Unlock()

	for page, b := range banners {
		if msg, visible := b.Current(); visible {
			v.Banners[page] = msg
		}
	}
	return v
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying st.
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(contextKey{}).(*State)
	return st, ok && st != nil
}
