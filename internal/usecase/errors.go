package usecase

import "errors"

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeBusinessNotFound    = "BUSINESS_NOT_FOUND"
	CodeEntitlementRequired = "ENTITLEMENT_REQUIRED"
	CodeSquareNotConnected  = "SQUARE_NOT_CONNECTED"
	CodeBackfillFailed      = "BACKFILL_FAILED"
	CodeLookupFailed        = "LOOKUP_FAILED"
)

// DomainError is a caller error: the request is rejected and nothing is persisted.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// TechnicalError is a systemic failure (storage, Square, email provider).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func technical(code string, err error) *TechnicalError {
	return &TechnicalError{Code: code, Message: err.Error(), Err: err}
}
