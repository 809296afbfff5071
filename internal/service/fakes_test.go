package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeTicketRepo stores tickets in memory and mimics the optimistic locking
// contract of the SQL repository: a stale Update fails with pgx.ErrNoRows.
// onUpdate, when set, runs before each Update so tests can interleave a
// concurrent writer.
type fakeTicketRepo struct {
	mu       sync.Mutex
	nextID   int64
	tickets  map[int64]domain.Ticket
	onUpdate func()
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{nextID: 1, tickets: make(map[int64]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.nextID
	r.nextID++
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = ticket.LastUpdatedAt
	}
	ticket.Version = 0
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if r.onUpdate != nil {
		r.onUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.Version != ticket.Version {
		return pgx.ErrNoRows
	}
	ticket.Version++
	r.tickets[ticket.ID] = *ticket
	return nil
}

// bumpVersion pretends another writer committed first.
func (r *fakeTicketRepo) bumpVersion(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.tickets[id]
	stored.Version++
	r.tickets[id] = stored
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := stored
	return &out, nil
}

func (r *fakeTicketRepo) ListByCustomer(_ context.Context, customerID int64) ([]domain.Ticket, error) {
	return r.filter(func(t *domain.Ticket) bool { return t.CustomerID == customerID }), nil
}

func (r *fakeTicketRepo) ListByEngineer(_ context.Context, engineerID int64) ([]domain.Ticket, error) {
	return r.filter(func(t *domain.Ticket) bool { return t.AssignedTo(engineerID) }), nil
}

func (r *fakeTicketRepo) ListByStatusNot(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.filter(func(t *domain.Ticket) bool { return t.Status != status }), nil
}

func (r *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return r.filter(func(*domain.Ticket) bool { return true }), nil
}

func (r *fakeTicketRepo) filter(keep func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		ticket := t
		if keep(&ticket) {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// mustGet reads the stored copy directly for assertions.
func (r *fakeTicketRepo) mustGet(id int64) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.TicketStatusHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{nextID: 1}
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketStatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketStatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketStatusHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, user := range r.users {
		if user.Role == role && user.Active {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]domain.IssueCategory
}

func newFakeCategoryRepo(categories ...domain.IssueCategory) *fakeCategoryRepo {
	r := &fakeCategoryRepo{nextID: 1, categories: make(map[int64]domain.IssueCategory)}
	for _, c := range categories {
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.categories[c.ID] = c
	}
	return r
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.IssueCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	category.ID = r.nextID
	r.nextID++
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.IssueCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id int64) (*domain.IssueCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (r *fakeCategoryRepo) ListActive(_ context.Context) ([]domain.IssueCategory, error) {
	return r.list(func(c *domain.IssueCategory) bool { return c.Active }), nil
}

func (r *fakeCategoryRepo) ListAll(_ context.Context) ([]domain.IssueCategory, error) {
	return r.list(func(*domain.IssueCategory) bool { return true }), nil
}

func (r *fakeCategoryRepo) list(keep func(*domain.IssueCategory) bool) []domain.IssueCategory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.IssueCategory
	for _, c := range r.categories {
		category := c
		if keep(&category) {
			out = append(out, category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// recordingNotifier captures notification calls for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	created  []int64
	assigned []int64
	warnings []int64
	breaches []int64
	resolved []int64
	closed   []int64
}

func (n *recordingNotifier) NotifyCreated(_ context.Context, t *domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, t.ID)
}

func (n *recordingNotifier) NotifyAssigned(_ context.Context, t *domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, t.ID)
}

func (n *recordingNotifier) NotifySLAWarning(_ context.Context, t *domain.Ticket, _ domain.SLAStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, t.ID)
}

func (n *recordingNotifier) NotifySLABreach(_ context.Context, t *domain.Ticket, _ domain.SLAStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.breaches = append(n.breaches, t.ID)
}

func (n *recordingNotifier) NotifyResolved(_ context.Context, t *domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, t.ID)
}

func (n *recordingNotifier) NotifyClosed(_ context.Context, t *domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, t.ID)
}

func (n *recordingNotifier) breachCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.breaches)
}

func (n *recordingNotifier) warningCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.warnings)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
