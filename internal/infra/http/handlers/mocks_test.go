package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-reviews/internal/entity"
	"github.com/xavierca1/ligue-reviews/internal/infra/queue"
)

type MockBusinessRepository struct{ mock.Mock }

func (m *MockBusinessRepository) FindByID(ctx context.Context, id string) (*entity.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Business), args.Error(1)
}

type MockCustomerRepository struct{ mock.Mock }

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, businessID, email string) (*entity.Customer, error) {
	args := m.Called(ctx, businessID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) UpdateContact(ctx context.Context, id, name, phone string) error {
	return m.Called(ctx, id, name, phone).Error(0)
}

type MockReviewRequestRepository struct{ mock.Mock }

func (m *MockReviewRequestRepository) Create(ctx context.Context, rr *entity.ReviewRequest) error {
	return m.Called(ctx, rr).Error(0)
}

func (m *MockReviewRequestRepository) ExistsSince(ctx context.Context, businessID, customerID string, since time.Time) (bool, error) {
	args := m.Called(ctx, businessID, customerID, since)
	return args.Bool(0), args.Error(1)
}

type MockConnectionRepository struct{ mock.Mock }

func (m *MockConnectionRepository) FindByUserID(ctx context.Context, userID string) (*entity.SquareConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SquareConnection), args.Error(1)
}

func (m *MockConnectionRepository) TouchLastBackfill(ctx context.Context, userID string, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

type MockJobRepository struct{ mock.Mock }

func (m *MockJobRepository) Create(ctx context.Context, job *entity.BackfillJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockJobRepository) MarkCompleted(ctx context.Context, id string, total, sent, skipped int) error {
	return m.Called(ctx, id, total, sent, skipped).Error(0)
}

func (m *MockJobRepository) MarkFailed(ctx context.Context, id, message string) error {
	return m.Called(ctx, id, message).Error(0)
}

func (m *MockJobRepository) FindLatestByBusiness(ctx context.Context, businessID string) (*entity.BackfillJob, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BackfillJob), args.Error(1)
}

type MockEntitlements struct{ mock.Mock }

func (m *MockEntitlements) HasActivePro(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockSource struct{ mock.Mock }

func (m *MockSource) ListCustomers(ctx context.Context, cursor string) (*entity.CandidatePage, error) {
	args := m.Called(ctx, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CandidatePage), args.Error(1)
}

type staticSourceFactory struct{ source entity.CustomerSource }

func (f staticSourceFactory) NewSource(*entity.SquareConnection) entity.CustomerSource {
	return f.source
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) Send(ctx context.Context, msg entity.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type stubTemplates struct{}

func (stubTemplates) ReviewRequestEmail(displayName, link string) (entity.EmailContent, error) {
	return entity.EmailContent{Subject: "Review " + displayName, HTML: link, Text: link}, nil
}

type MockQueueProducer struct{ mock.Mock }

func (m *MockQueueProducer) PublishBackfillFinished(ctx context.Context, payload queue.BackfillFinishedPayload) error {
	return m.Called(ctx, payload).Error(0)
}
