package controllers

import (
	"net/http"

	"github.com/qanzmarket/qanz-backend/api/responses"
	"github.com/qanzmarket/qanz-backend/api/validators"
	codesvc "github.com/qanzmarket/qanz-backend/internal/codes"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

type redeemCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// RedeemTopupCode exchanges a voucher for wallet balance. The raw code is
// normalized server-side, so dashes and case do not matter.
func RedeemTopupCode(svc codesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload redeemCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Redeem(r.Context(), payload.Code, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

type generateCodesRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"required,gt=0,lte=1000"`
}

func AdminGenerateTopupCodes(svc codesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateCodesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		codes, err := svc.Generate(r.Context(), codesvc.GenerateInput{
			AmountCents: payload.AmountCents,
			Quantity:    payload.Quantity,
			CreatorID:   adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, codes)
	}
}

func AdminListTopupCodes(svc codesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := svc.List(r.Context(), limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, codes)
	}
}

func AdminVoidTopupCode(svc codesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codeID, err := pathUUID(r, "codeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.Void(r.Context(), codeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, code)
	}
}
