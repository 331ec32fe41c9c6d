package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
	"github.com/xavierca1/ligue-reviews/internal/infra/queue"
)

const RecentWindowDays = 90

const recentWindow = RecentWindowDays * 24 * time.Hour

type RunBackfillUseCase struct {
	BusinessRepo   entity.BusinessRepository
	CustomerRepo   entity.CustomerRepositoryInterface
	ReviewRepo     entity.ReviewRequestRepository
	ConnectionRepo entity.SquareConnectionRepository
	JobRepo        entity.BackfillJobRepository
	Entitlements   EntitlementChecker
	Sources        CustomerSourceFactory
	Mailer         EmailSender
	Templates      TemplateRenderer
	Queue          QueueProducerInterface
	Metrics        BackfillMetrics
	Logger         *slog.Logger
	FromAddress    string
	Now            func() time.Time
}

func NewRunBackfillUseCase(
	businessRepo entity.BusinessRepository,
	customerRepo entity.CustomerRepositoryInterface,
	reviewRepo entity.ReviewRequestRepository,
	connectionRepo entity.SquareConnectionRepository,
	jobRepo entity.BackfillJobRepository,
	entitlements EntitlementChecker,
	sources CustomerSourceFactory,
	mailer EmailSender,
	templates TemplateRenderer,
	producer QueueProducerInterface,
	metrics BackfillMetrics,
	logger *slog.Logger,
	fromAddress string,
) *RunBackfillUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunBackfillUseCase{
		BusinessRepo:   businessRepo,
		CustomerRepo:   customerRepo,
		ReviewRepo:     reviewRepo,
		ConnectionRepo: connectionRepo,
		JobRepo:        jobRepo,
		Entitlements:   entitlements,
		Sources:        sources,
		Mailer:         mailer,
		Templates:      templates,
		Queue:          producer,
		Metrics:        metrics,
		Logger:         logger,
		FromAddress:    fromAddress,
		Now:            time.Now,
	}
}

// backfillRun is the mutable state of one job invocation.
type backfillRun struct {
	job        *entity.BackfillJob
	business   *entity.Business
	reviewLink string
	dryRun     bool
	sent       int
	skipped    int
	results    []entity.BackfillResult
}

func (r *backfillRun) record(email, status, reason string) {
	if status == entity.ResultSkipped {
		r.skipped++
	} else {
		r.sent++
	}
	r.results = append(r.results, entity.BackfillResult{Email: email, Status: status, Reason: reason})
}

func (uc *RunBackfillUseCase) Execute(ctx context.Context, input RunBackfillInput) (*RunBackfillOutput, error) {
	params, err := ValidateBackfillInput(input)
	if err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	business, source, err := uc.authorize(ctx, input.UserID, params.BusinessID)
	if err != nil {
		return nil, err
	}

	job := entity.NewBackfillJob(input.UserID, business.ID, params.Window.Start, params.Window.End,
		entity.BackfillFilters{DryRun: params.DryRun, Limit: params.Limit})
	if err := uc.JobRepo.Create(ctx, job); err != nil {
		return nil, technical(CodeBackfillFailed, fmt.Errorf("create backfill job: %w", err))
	}

	logger := uc.Logger.With(
		slog.String("job_id", job.ID),
		slog.String("business_id", business.ID),
		slog.Bool("dry_run", params.DryRun),
		slog.Int("limit", params.Limit),
	)
	logger.Info("square backfill started")

	run := &backfillRun{
		job:        job,
		business:   business,
		reviewLink: business.ResolvedReviewLink(),
		dryRun:     params.DryRun,
		results:    []entity.BackfillResult{},
	}

	total, err := ReadCandidates(ctx, source, params.Window, params.Limit, func(c entity.Candidate) error {
		return uc.process(ctx, run, c)
	})
	if err == nil {
		err = uc.finalize(ctx, run, total)
	}
	if err != nil {
		uc.fail(ctx, logger, run, err)
		return nil, technical(CodeBackfillFailed, err)
	}

	logger.Info("square backfill completed",
		slog.Int("total", total),
		slog.Int("sent", run.sent),
		slog.Int("skipped", run.skipped),
	)
	uc.observeJob(entity.JobStatusCompleted)
	uc.publish(ctx, logger, run, entity.JobStatusCompleted, total, run.sent, run.skipped, "")

	return &RunBackfillOutput{
		JobID:           job.ID,
		TotalConsidered: total,
		Sent:            run.sent,
		Skipped:         run.skipped,
		DryRun:          params.DryRun,
		Results:         run.results,
	}, nil
}

// authorize runs the cheap ownership check before the entitlement and connection
// lookups. Nothing is written on rejection.
func (uc *RunBackfillUseCase) authorize(ctx context.Context, userID, businessID string) (*entity.Business, entity.CustomerSource, error) {
	business, err := uc.BusinessRepo.FindByID(ctx, businessID)
	if errors.Is(err, entity.ErrBusinessNotFound) || (err == nil && !business.IsOwnedBy(userID)) {
		return nil, nil, &DomainError{Code: CodeBusinessNotFound, Message: "business not found"}
	}
	if err != nil {
		return nil, nil, technical(CodeLookupFailed, fmt.Errorf("load business: %w", err))
	}

	pro, err := uc.Entitlements.HasActivePro(ctx, userID)
	if err != nil {
		return nil, nil, technical(CodeLookupFailed, fmt.Errorf("check entitlement: %w", err))
	}
	if !pro {
		return nil, nil, &DomainError{Code: CodeEntitlementRequired, Message: "an active Pro plan is required"}
	}

	conn, err := uc.ConnectionRepo.FindByUserID(ctx, userID)
	if errors.Is(err, entity.ErrConnectionNotFound) || (err == nil && !conn.IsConnected()) {
		return nil, nil, &DomainError{Code: CodeSquareNotConnected, Message: "square is not connected"}
	}
	if err != nil {
		return nil, nil, technical(CodeLookupFailed, fmt.Errorf("load square connection: %w", err))
	}

	return business, uc.Sources.NewSource(conn), nil
}

func (uc *RunBackfillUseCase) process(ctx context.Context, run *backfillRun, c entity.Candidate) error {
	customerID, known, err := uc.resolveCustomer(ctx, run, c)
	if err != nil {
		return err
	}

	if known {
		since := uc.Now().Add(-recentWindow)
		recent, err := uc.ReviewRepo.ExistsSince(ctx, run.business.ID, customerID, since)
		if err != nil {
			return fmt.Errorf("check recent review requests for %s: %w", c.Email, err)
		}
		if recent {
			uc.classify(run, c.Email, entity.ResultSkipped, entity.ReasonRecentRequest)
			return nil
		}
	}

	if run.dryRun {
		uc.classify(run, c.Email, entity.ResultWouldSend, "")
		return nil
	}

	if run.reviewLink == "" {
		uc.classify(run, c.Email, entity.ResultSkipped, entity.ReasonMissingReviewLink)
		return nil
	}

	content, err := uc.Templates.ReviewRequestEmail(c.DisplayName(), run.reviewLink)
	if err != nil {
		return fmt.Errorf("render review request email: %w", err)
	}

	messageID, err := uc.Mailer.Send(ctx, entity.EmailMessage{
		From:         uc.FromAddress,
		To:           c.Email,
		EmailContent: content,
	})
	if err != nil {
		return fmt.Errorf("send review request to %s: %w", c.Email, err)
	}

	rr := entity.NewSentReviewRequest(run.business.ID, customerID, run.reviewLink, messageID, uc.Now())
	if err := uc.ReviewRepo.Create(ctx, rr); err != nil {
		return fmt.Errorf("record review request for %s: %w", c.Email, err)
	}

	uc.classify(run, c.Email, entity.ResultSent, "")
	return nil
}

// resolveCustomer upserts the local customer row. In dry-run it only looks the row
// up; known is false when no row exists yet.
func (uc *RunBackfillUseCase) resolveCustomer(ctx context.Context, run *backfillRun, c entity.Candidate) (id string, known bool, err error) {
	businessID := run.business.ID

	existing, err := uc.CustomerRepo.FindByEmail(ctx, businessID, c.Email)
	if err != nil && !errors.Is(err, entity.ErrCustomerNotFound) {
		return "", false, fmt.Errorf("find customer %s: %w", c.Email, err)
	}

	if existing == nil {
		if run.dryRun {
			return "", false, nil
		}
		customer := entity.NewCustomer(businessID, c.Email, c.FullName(), c.Phone, entity.CustomerSourceSquare)
		err := uc.CustomerRepo.Create(ctx, customer)
		if errors.Is(err, entity.ErrDuplicate) {
			// Created by a concurrent writer since the lookup above.
			existing, err = uc.CustomerRepo.FindByEmail(ctx, businessID, c.Email)
			if err != nil {
				return "", false, fmt.Errorf("reload customer %s: %w", c.Email, err)
			}
			return existing.ID, true, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("create customer %s: %w", c.Email, err)
		}
		return customer.ID, true, nil
	}

	if !run.dryRun {
		if name, phone, changed := existing.ContactChanges(c.FullName(), c.Phone); changed {
			if err := uc.CustomerRepo.UpdateContact(ctx, existing.ID, name, phone); err != nil {
				return "", false, fmt.Errorf("update customer %s: %w", c.Email, err)
			}
		}
	}
	return existing.ID, true, nil
}

func (uc *RunBackfillUseCase) classify(run *backfillRun, email, status, reason string) {
	run.record(email, status, reason)
	if uc.Metrics != nil {
		uc.Metrics.ObserveCandidate(status, reason)
	}
}

func (uc *RunBackfillUseCase) finalize(ctx context.Context, run *backfillRun, total int) error {
	if !run.dryRun {
		if err := uc.ConnectionRepo.TouchLastBackfill(ctx, run.job.UserID, uc.Now()); err != nil {
			return fmt.Errorf("update last backfill time: %w", err)
		}
	}
	if err := uc.JobRepo.MarkCompleted(ctx, run.job.ID, total, run.sent, run.skipped); err != nil {
		return fmt.Errorf("complete backfill job: %w", err)
	}
	return nil
}

// fail records the error on the job row. A cancelled request still gets its job
// finalized, so the write detaches from the request context.
func (uc *RunBackfillUseCase) fail(ctx context.Context, logger *slog.Logger, run *backfillRun, cause error) {
	logger.Error("square backfill failed", slog.Any("err", cause))

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := uc.JobRepo.MarkFailed(writeCtx, run.job.ID, cause.Error()); err != nil {
		logger.Error("could not mark backfill job failed", slog.Any("err", err))
	}
	uc.observeJob(entity.JobStatusFailed)
	uc.publish(writeCtx, logger, run, entity.JobStatusFailed, 0, 0, 0, cause.Error())
}

func (uc *RunBackfillUseCase) observeJob(status string) {
	if uc.Metrics != nil {
		uc.Metrics.ObserveJob(status)
	}
}

func (uc *RunBackfillUseCase) publish(ctx context.Context, logger *slog.Logger, run *backfillRun, status string, total, sent, skipped int, errMsg string) {
	if uc.Queue == nil {
		return
	}
	payload := queue.BackfillFinishedPayload{
		JobID:      run.job.ID,
		UserID:     run.job.UserID,
		BusinessID: run.job.BusinessID,
		Status:     status,
		DryRun:     run.dryRun,
		Total:      total,
		Sent:       sent,
		Skipped:    skipped,
		Error:      errMsg,
		FinishedAt: uc.Now().UTC(),
	}
	if err := uc.Queue.PublishBackfillFinished(ctx, payload); err != nil {
		logger.Warn("backfill finished event not published", slog.Any("err", err))
	}
}
