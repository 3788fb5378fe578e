package controllers

import (
	"net/http"

	"github.com/qanzmarket/qanz-backend/api/responses"
	settlementsvc "github.com/qanzmarket/qanz-backend/internal/settlements"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

// ListMySettlements scopes by party: sellers see their receivables,
// drivers their delivery fees.
func ListMySettlements(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var settlements any
		switch role {
		case enums.UserRoleSeller:
			settlements, err = svc.ListBySeller(r.Context(), actorID, limitParam(r))
		case enums.UserRoleDriver:
			settlements, err = svc.ListByDriver(r.Context(), actorID, limitParam(r))
		default:
			err = pkgerrors.New(pkgerrors.CodeForbidden, "no settlement listing for this role")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlements)
	}
}

func AdminListPendingSettlements(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settlements, err := svc.ListPending(r.Context(), limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlements)
	}
}

func AdminMarkSettlementPaid(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settlementID, err := pathUUID(r, "settlementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settlement, err := svc.MarkPaid(r.Context(), settlementID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlement)
	}
}
