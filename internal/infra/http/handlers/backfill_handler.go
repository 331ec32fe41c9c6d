package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xavierca1/ligue-reviews/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-reviews/internal/usecase"
)

type BackfillHandler struct {
	RunUC    *usecase.RunBackfillUseCase
	LatestUC *usecase.GetLatestBackfillUseCase
	Logger   *slog.Logger
}

func NewBackfillHandler(runUC *usecase.RunBackfillUseCase, latestUC *usecase.GetLatestBackfillUseCase, logger *slog.Logger) *BackfillHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillHandler{RunUC: runUC, LatestUC: latestUC, Logger: logger}
}

// HandleRun serves POST /api/integrations/square/backfill.
func (h *BackfillHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input usecase.RunBackfillInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	input.UserID = uid

	output, err := h.RunUC.Execute(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

// HandleLatest serves GET /api/integrations/square/backfill?businessId=.
func (h *BackfillHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	output, err := h.LatestUC.Execute(r.Context(), usecase.GetLatestBackfillInput{
		UserID:     uid,
		BusinessID: r.URL.Query().Get("businessId"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (h *BackfillHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if usecase.IsTechnicalError(err) || status >= http.StatusInternalServerError {
		h.Logger.Error("backfill request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeValidation:
			return http.StatusBadRequest
		case usecase.CodeBusinessNotFound:
			return http.StatusNotFound
		case usecase.CodeEntitlementRequired:
			return http.StatusForbidden
		case usecase.CodeSquareNotConnected:
			return http.StatusConflict
		}
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
