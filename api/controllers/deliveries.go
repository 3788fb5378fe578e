package controllers

import (
	"net/http"
	"strings"

	"github.com/qanzmarket/qanz-backend/api/responses"
	"github.com/qanzmarket/qanz-backend/api/validators"
	deliverysvc "github.com/qanzmarket/qanz-backend/internal/deliveries"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

// ListAvailableDeliveries shows the open jobs drivers can claim, oldest
// first.
func ListAvailableDeliveries(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveries, err := svc.ListAvailable(r.Context(), limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deliveries)
	}
}

func ListMyDeliveries(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deliveries, err := svc.ListByDriver(r.Context(), driverID, limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deliveries)
	}
}

func ClaimDelivery(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deliveryID, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Claim(r.Context(), deliveryID, driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

type deliveryStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func UpdateDeliveryStatus(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deliveryID, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseDeliveryStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		delivery, err := svc.Advance(r.Context(), deliveryID, driverID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}
