// Package memory implements the repository interfaces over maps. It backs
// service and HTTP tests, including the transactional review path.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/repository"
)

// Store holds every table. Requests and entries are replaced wholesale when a
// review transaction commits. Timestamps advance one second per write so
// newest-first ordering is deterministic.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	tick     time.Time
	users    map[string]*domain.User
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task
	requests map[string]*domain.Request
	entries  map[string]*domain.TimeEntry

	failEntryCreate error
}

func NewStore() *Store {
	return &Store{
		tick:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[string]*domain.User{},
		projects: map[string]*domain.Project{},
		tasks:    map[string]*domain.Task{},
		requests: map[string]*domain.Request{},
		entries:  map[string]*domain.TimeEntry{},
	}
}

func (s *Store) next() time.Time {
	s.tick = s.tick.Add(time.Second)
	return s.tick
}

func (s *Store) Users() Users             { return Users{s: s} }
func (s *Store) Projects() Projects       { return Projects{s: s} }
func (s *Store) Tasks() Tasks             { return Tasks{s: s} }
func (s *Store) Requests() Requests       { return Requests{s: s} }
func (s *Store) TimeEntries() TimeEntries { return TimeEntries{s: s} }
func (s *Store) TxRunner() TxRunner       { return TxRunner{s: s} }

// FailEntryCreate makes every later time entry insert return err; nil clears it.
func (s *Store) FailEntryCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failEntryCreate = err
}

// AddUser seeds an active user with a derived email address.
func (s *Store) AddUser(role domain.Role, firstName string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  "Test",
		Email:     strings.ToLower(firstName) + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: s.next(),
	}
	s.users[u.ID] = u
	clone := *u
	return &clone
}

// AddTask seeds an active project with one pending task, optionally assigned.
func (s *Store) AddTask(assignee *domain.User) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Project{ID: uuid.NewString(), Name: "Apollo", Status: domain.ProjectStatusActive}
	s.projects[p.ID] = p
	t := &domain.Task{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		Title:     "Build",
		Status:    domain.TaskStatusPending,
		Priority:  domain.PriorityMedium,
		CreatedAt: s.next(),
	}
	if assignee != nil {
		t.AssignedTo = &assignee.ID
	}
	s.tasks[t.ID] = t
	clone := *t
	return &clone
}

// User returns a snapshot of the stored user and whether it exists.
func (s *Store) User(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

// Request returns a snapshot of the stored request and whether it exists.
func (s *Store) Request(id string) (domain.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return domain.Request{}, false
	}
	return *r, true
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// EntriesForRequest counts entries materialized from requestID.
func (s *Store) EntriesForRequest(requestID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.SourceRequestID != nil && *e.SourceRequestID == requestID {
			n++
		}
	}
	return n
}

// Users implements repository.UserRepository.
type Users struct{ s *Store }

func (r Users) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.next()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.s.users[user.ID] = &clone
	return nil
}

func (r Users) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.s.users[user.ID] = &clone
	return nil
}

func (r Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (r Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r Users) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r Users) Deactivate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsActive = false
	return nil
}

// Projects implements repository.ProjectRepository.
type Projects struct{ s *Store }

func (r Projects) Create(_ context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = r.s.next()
	clone := *p
	r.s.projects[p.ID] = &clone
	return nil
}

func (r Projects) Update(_ context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *p
	r.s.projects[p.ID] = &clone
	return nil
}

func (r Projects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (r Projects) List(_ context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Project
	for _, p := range r.s.projects {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r Projects) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.projects, id)
	return nil
}

// Tasks implements repository.TaskRepository.
type Tasks struct{ s *Store }

func (r Tasks) Create(_ context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.s.next()
	clone := *t
	r.s.tasks[t.ID] = &clone
	return nil
}

func (r Tasks) Update(_ context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *t
	r.s.tasks[t.ID] = &clone
	return nil
}

func (r Tasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (r Tasks) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.tasks[id]
	return ok, nil
}

func (r Tasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Task
	for _, t := range r.s.tasks {
		if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r Tasks) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.tasks, id)
	return nil
}

// Requests implements repository.RequestRepository. Inside a review
// transaction it writes to a staged copy.
type Requests struct {
	s      *Store
	staged map[string]*domain.Request
}

// m returns the staged map inside a transaction, else the live one.
// Callers hold s.mu.
func (r Requests) m() map[string]*domain.Request {
	if r.staged != nil {
		return r.staged
	}
	return r.s.requests
}

func (r Requests) Create(_ context.Context, req *domain.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = uuid.NewString()
	req.CreatedAt = r.s.next()
	clone := *req
	r.m()[req.ID] = &clone
	return nil
}

func (r Requests) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.m()[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *req
	return &clone, nil
}

func (r Requests) List(_ context.Context, filter repository.RequestFilter) ([]domain.RequestListItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.RequestListItem
	for _, req := range r.m() {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		item := domain.RequestListItem{Request: *req}
		if u, ok := r.s.users[req.UserID]; ok {
			item.SubmitterFirstName, item.SubmitterLastName = u.FirstName, u.LastName
		}
		if t, ok := r.s.tasks[req.TaskID]; ok {
			item.TaskTitle = t.Title
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkReviewed mirrors the conditional update: a request that is missing or
// no longer pending matches no row.
func (r Requests) MarkReviewed(_ context.Context, id string, decision repository.ReviewDecision) (*domain.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.m()[id]
	if !ok || req.Status != domain.RequestStatusPending {
		return nil, pgx.ErrNoRows
	}
	updated := *req
	now := r.s.next()
	reviewer := decision.ReviewerID
	updated.Status = decision.Status
	updated.ReviewedBy = &reviewer
	updated.ReviewedAt = &now
	updated.ReviewComment = decision.Comment
	r.m()[id] = &updated
	clone := updated
	return &clone, nil
}

// TimeEntries implements repository.TimeEntryRepository, enforcing the
// unique source request like the table constraint does.
type TimeEntries struct {
	s      *Store
	staged map[string]*domain.TimeEntry
}

func (r TimeEntries) m() map[string]*domain.TimeEntry {
	if r.staged != nil {
		return r.staged
	}
	return r.s.entries
}

func (r TimeEntries) Create(_ context.Context, e *domain.TimeEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failEntryCreate != nil {
		return r.s.failEntryCreate
	}
	if e.SourceRequestID != nil {
		for _, existing := range r.m() {
			if existing.SourceRequestID != nil && *existing.SourceRequestID == *e.SourceRequestID {
				return &pgconn.PgError{Code: "23505", ConstraintName: "time_entries_source_request_id_key"}
			}
		}
	}
	e.ID = uuid.NewString()
	e.CreatedAt = r.s.next()
	clone := *e
	r.m()[e.ID] = &clone
	return nil
}

func (r TimeEntries) GetByID(_ context.Context, id string) (*domain.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.m()[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (r TimeEntries) GetBySourceRequest(_ context.Context, requestID string) (*domain.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.m() {
		if e.SourceRequestID != nil && *e.SourceRequestID == requestID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r TimeEntries) List(_ context.Context, filter repository.TimeEntryFilter) ([]domain.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TimeEntry
	for _, e := range r.m() {
		if e.UserID != filter.UserID {
			continue
		}
		if filter.TaskID != nil && e.TaskID != *filter.TaskID {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r TimeEntries) Update(_ context.Context, e *domain.TimeEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.m()[e.ID]
	if !ok || existing.UserID != e.UserID {
		return pgx.ErrNoRows
	}
	clone := *e
	r.m()[e.ID] = &clone
	return nil
}

func (r TimeEntries) Delete(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.m()[id]
	if !ok || existing.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.m(), id)
	return nil
}

// TxRunner implements repository.ReviewTxRunner. It stages request and entry
// writes on copies and publishes them only when fn succeeds. Reviews are
// serialized the way the row lock serializes them in Postgres.
type TxRunner struct{ s *Store }

func (r TxRunner) RunReview(_ context.Context, fn func(repository.RequestRepository, repository.TimeEntryRepository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	requests := make(map[string]*domain.Request, len(r.s.requests))
	for k, v := range r.s.requests {
		clone := *v
		requests[k] = &clone
	}
	entries := make(map[string]*domain.TimeEntry, len(r.s.entries))
	for k, v := range r.s.entries {
		clone := *v
		entries[k] = &clone
	}
	r.s.mu.Unlock()

	if err := fn(Requests{s: r.s, staged: requests}, TimeEntries{s: r.s, staged: entries}); err != nil {
		return err
	}

	r.s.mu.Lock()
	r.s.requests = requests
	r.s.entries = entries
	r.s.mu.Unlock()
	return nil
}

var (
	_ repository.UserRepository      = Users{}
	_ repository.ProjectRepository   = Projects{}
	_ repository.TaskRepository      = Tasks{}
	_ repository.RequestRepository   = Requests{}
	_ repository.TimeEntryRepository = TimeEntries{}
	_ repository.ReviewTxRunner      = TxRunner{}
)
