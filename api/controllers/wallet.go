package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/api/responses"
	"github.com/qanzmarket/qanz-backend/api/validators"
	walletsvc "github.com/qanzmarket/qanz-backend/internal/wallet"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

// WalletStatement returns the caller's derived balance plus recent
// ledger entries.
func WalletStatement(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statement, err := svc.Statement(r.Context(), userID, limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statement)
	}
}

type adminAdjustmentRequest struct {
	UserID      string  `json:"user_id" validate:"required"`
	AmountCents int64   `json:"amount_cents" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	Description *string `json:"description"`
}

// AdminAppendWalletEntry lets operators issue refunds and manual
// adjustments as regular append-only entries.
func AdminAppendWalletEntry(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adminAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}
		entryType, err := enums.ParseWalletEntryType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry type"))
			return
		}

		entry, err := svc.Append(r.Context(), walletsvc.AppendInput{
			UserID:      userID,
			AmountCents: payload.AmountCents,
			Type:        entryType,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
