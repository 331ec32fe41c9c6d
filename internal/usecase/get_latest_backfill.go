package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type GetLatestBackfillUseCase struct {
	BusinessRepo entity.BusinessRepository
	JobRepo      entity.BackfillJobRepository
}

func NewGetLatestBackfillUseCase(businessRepo entity.BusinessRepository, jobRepo entity.BackfillJobRepository) *GetLatestBackfillUseCase {
	return &GetLatestBackfillUseCase{BusinessRepo: businessRepo, JobRepo: jobRepo}
}

func (uc *GetLatestBackfillUseCase) Execute(ctx context.Context, input GetLatestBackfillInput) (*GetLatestBackfillOutput, error) {
	businessID := strings.TrimSpace(input.BusinessID)
	if businessID == "" {
		return nil, &DomainError{Code: CodeValidation, Message: ValidationError{"businessId", "is required"}.Error()}
	}

	business, err := uc.BusinessRepo.FindByID(ctx, businessID)
	if errors.Is(err, entity.ErrBusinessNotFound) || (err == nil && !business.IsOwnedBy(input.UserID)) {
		return nil, &DomainError{Code: CodeBusinessNotFound, Message: "business not found"}
	}
	if err != nil {
		return nil, technical(CodeLookupFailed, fmt.Errorf("load business: %w", err))
	}

	job, err := uc.JobRepo.FindLatestByBusiness(ctx, business.ID)
	if errors.Is(err, entity.ErrJobNotFound) {
		return &GetLatestBackfillOutput{Job: nil}, nil
	}
	if err != nil {
		return nil, technical(CodeLookupFailed, fmt.Errorf("load latest backfill job: %w", err))
	}

	return &GetLatestBackfillOutput{Job: job}, nil
}
