package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
	"github.com/xavierca1/ligue-reviews/internal/infra/queue"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

// memStore backs every repository port with maps so tests can inspect the
// resulting rows.
type memStore struct {
	mu sync.Mutex

	businesses  map[string]*entity.Business
	customers   map[string]*entity.Customer // businessID + "|" + email
	reviews     []*entity.ReviewRequest
	connections map[string]*entity.SquareConnection
	jobs        map[string]*entity.BackfillJob
	jobOrder    []string
	pro         map[string]bool

	customerCreates int
	contactUpdates  int

	createCustomerErr error
	createReviewErr   error
	createJobErr      error
	entitlementErr    error
}

func newMemStore() *memStore {
	return &memStore{
		businesses:  map[string]*entity.Business{},
		customers:   map[string]*entity.Customer{},
		connections: map[string]*entity.SquareConnection{},
		jobs:        map[string]*entity.BackfillJob{},
		pro:         map[string]bool{},
	}
}

func customerKey(businessID, email string) string {
	return businessID + "|" + email
}

func (s *memStore) addCustomer(businessID, email string) *entity.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := entity.NewCustomer(businessID, email, "", "", entity.CustomerSourceSquare)
	s.customers[customerKey(businessID, c.Email)] = c
	return c
}

func (s *memStore) addReview(businessID, customerID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, entity.NewSentReviewRequest(businessID, customerID, "https://link", "old", at))
}

func (s *memStore) reviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviews)
}

func (s *memStore) customerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

func (s *memStore) job(id string) *entity.BackfillJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *memStore) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

type fakeBusinessRepo struct{ s *memStore }

func (r fakeBusinessRepo) FindByID(ctx context.Context, id string) (*entity.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.businesses[id]
	if !ok {
		return nil, entity.ErrBusinessNotFound
	}
	cp := *b
	return &cp, nil
}

type fakeCustomerRepo struct{ s *memStore }

func (r fakeCustomerRepo) FindByEmail(ctx context.Context, businessID, email string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[customerKey(businessID, email)]
	if !ok {
		return nil, entity.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeCustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createCustomerErr != nil {
		return r.s.createCustomerErr
	}
	key := customerKey(c.BusinessID, c.Email)
	if _, ok := r.s.customers[key]; ok {
		return entity.ErrDuplicate
	}
	cp := *c
	r.s.customers[key] = &cp
	r.s.customerCreates++
	return nil
}

func (r fakeCustomerRepo) UpdateContact(ctx context.Context, id, name, phone string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.ID == id {
			c.Name, c.Phone = name, phone
			r.s.contactUpdates++
			return nil
		}
	}
	return entity.ErrCustomerNotFound
}

type fakeReviewRepo struct{ s *memStore }

func (r fakeReviewRepo) Create(ctx context.Context, rr *entity.ReviewRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createReviewErr != nil {
		return r.s.createReviewErr
	}
	r.s.reviews = append(r.s.reviews, rr)
	return nil
}

func (r fakeReviewRepo) ExistsSince(ctx context.Context, businessID, customerID string, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rr := range r.s.reviews {
		if rr.BusinessID == businessID && rr.CustomerID == customerID && !rr.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeConnectionRepo struct{ s *memStore }

func (r fakeConnectionRepo) FindByUserID(ctx context.Context, userID string) (*entity.SquareConnection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.connections[userID]
	if !ok {
		return nil, entity.ErrConnectionNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeConnectionRepo) TouchLastBackfill(ctx context.Context, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.connections[userID]
	if !ok {
		return entity.ErrConnectionNotFound
	}
	c.LastBackfillAt = &at
	return nil
}

type fakeJobRepo struct{ s *memStore }

func (r fakeJobRepo) Create(ctx context.Context, job *entity.BackfillJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createJobErr != nil {
		return r.s.createJobErr
	}
	cp := *job
	r.s.jobs[job.ID] = &cp
	r.s.jobOrder = append(r.s.jobOrder, job.ID)
	return nil
}

func (r fakeJobRepo) MarkCompleted(ctx context.Context, id string, total, sent, skipped int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok || job.Status != entity.JobStatusRunning {
		return entity.ErrJobNotFound
	}
	job.Status = entity.JobStatusCompleted
	job.Total, job.Sent, job.Skipped = total, sent, skipped
	return nil
}

func (r fakeJobRepo) MarkFailed(ctx context.Context, id, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok || job.Status != entity.JobStatusRunning {
		return entity.ErrJobNotFound
	}
	job.Status = entity.JobStatusFailed
	job.Error = &message
	return nil
}

func (r fakeJobRepo) FindLatestByBusiness(ctx context.Context, businessID string) (*entity.BackfillJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.jobOrder) - 1; i >= 0; i-- {
		if job := r.s.jobs[r.s.jobOrder[i]]; job.BusinessID == businessID {
			cp := *job
			return &cp, nil
		}
	}
	return nil, entity.ErrJobNotFound
}

type fakeEntitlements struct{ s *memStore }

func (f fakeEntitlements) HasActivePro(ctx context.Context, userID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.entitlementErr != nil {
		return false, f.s.entitlementErr
	}
	return f.s.pro[userID], nil
}

// pagedSource serves fixed pages; the cursor is the index of the next page.
type pagedSource struct {
	mu    sync.Mutex
	pages [][]entity.Candidate
	calls int
	err   error
}

func (p *pagedSource) ListCustomers(ctx context.Context, cursor string) (*entity.CandidatePage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}

	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", cursor)
		}
		idx = n
	}
	if idx >= len(p.pages) {
		return &entity.CandidatePage{}, nil
	}

	page := &entity.CandidatePage{Candidates: append([]entity.Candidate(nil), p.pages[idx]...)}
	if idx+1 < len(p.pages) {
		page.Cursor = strconv.Itoa(idx + 1)
	}
	return page, nil
}

type fakeSourceFactory struct {
	source entity.CustomerSource
	conns  []*entity.SquareConnection
}

func (f *fakeSourceFactory) NewSource(conn *entity.SquareConnection) entity.CustomerSource {
	f.conns = append(f.conns, conn)
	return f.source
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []entity.EmailMessage
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg entity.EmailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeTemplates struct{}

func (fakeTemplates) ReviewRequestEmail(displayName, link string) (entity.EmailContent, error) {
	if link == "" {
		return entity.EmailContent{}, errors.New("empty link")
	}
	return entity.EmailContent{
		Subject: "How was your visit, " + displayName + "?",
		HTML:    "<a href=\"" + link + "\">Review</a>",
		Text:    link,
	}, nil
}

type fakeProducer struct {
	mu       sync.Mutex
	payloads []queue.BackfillFinishedPayload
	err      error
}

func (p *fakeProducer) PublishBackfillFinished(ctx context.Context, payload queue.BackfillFinishedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return p.err
}

type fakeMetrics struct {
	mu         sync.Mutex
	candidates map[string]int
	jobs       map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{candidates: map[string]int{}, jobs: map[string]int{}}
}

func (m *fakeMetrics) ObserveCandidate(status, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[status+"/"+reason]++
}

func (m *fakeMetrics) ObserveJob(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[status]++
}

const (
	testUser     = "uid-owner"
	testBusiness = "biz-1"
	testLink     = "https://search.google.com/local/writereview?placeid=abc"
)

type fixture struct {
	store    *memStore
	source   *pagedSource
	factory  *fakeSourceFactory
	mailer   *fakeMailer
	producer *fakeProducer
	metrics  *fakeMetrics
	uc       *RunBackfillUseCase
}

// newFixture wires an owned, Pro, Square-connected business with a review link.
func newFixture(pages ...[]entity.Candidate) *fixture {
	store := newMemStore()
	store.businesses[testBusiness] = &entity.Business{
		ID:                   testBusiness,
		OwnerUserID:          testUser,
		Name:                 "Padaria Ligue",
		GoogleWriteReviewURI: testLink,
	}
	store.pro[testUser] = true
	store.connections[testUser] = &entity.SquareConnection{ID: "conn-1", UserID: testUser, AccessToken: "EAAA-token"}

	source := &pagedSource{pages: pages}
	factory := &fakeSourceFactory{source: source}
	mailer := &fakeMailer{}
	producer := &fakeProducer{}
	metrics := newFakeMetrics()

	uc := NewRunBackfillUseCase(
		fakeBusinessRepo{store},
		fakeCustomerRepo{store},
		fakeReviewRepo{store},
		fakeConnectionRepo{store},
		fakeJobRepo{store},
		fakeEntitlements{store},
		factory,
		mailer,
		fakeTemplates{},
		producer,
		metrics,
		nil,
		"reviews@ligue.com",
	)
	uc.Now = func() time.Time { return testNow }

	return &fixture{
		store:    store,
		source:   source,
		factory:  factory,
		mailer:   mailer,
		producer: producer,
		metrics:  metrics,
		uc:       uc,
	}
}

func cand(email string) entity.Candidate {
	return entity.Candidate{Email: email, CreatedAt: testNow.Add(-30 * 24 * time.Hour)}
}

func intPtr(n int) *int { return &n }
