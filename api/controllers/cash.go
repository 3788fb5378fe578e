package controllers

import (
	"net/http"
	"strings"

	"github.com/qanzmarket/qanz-backend/api/responses"
	"github.com/qanzmarket/qanz-backend/api/validators"
	cashsvc "github.com/qanzmarket/qanz-backend/internal/cash"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

type reportCollectedRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"gte=0"`
}

// DriverReportCollected records the cash the driver actually received at
// the door.
func DriverReportCollected(svc cashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		collectionID, err := pathUUID(r, "collectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reportCollectedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.ReportCollected(r.Context(), collectionID, driverID, payload.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminListCashCollections(svc cashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := enums.CashCollectionStatusPending
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseCashCollectionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = parsed
		}

		collections, err := svc.ListByStatus(r.Context(), status, limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, collections)
	}
}

func AdminConfirmCashCollection(svc cashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collectionID, err := pathUUID(r, "collectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		collection, err := svc.Confirm(r.Context(), collectionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, collection)
	}
}
