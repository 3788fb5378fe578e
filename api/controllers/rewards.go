package controllers

import (
	"net/http"

	"github.com/qanzmarket/qanz-backend/api/responses"
	"github.com/qanzmarket/qanz-backend/api/validators"
	rewardsvc "github.com/qanzmarket/qanz-backend/internal/rewards"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

func ListMyRewards(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, err := svc.ListEventsByUser(r.Context(), userID, limitParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

func AdminListRewardRules(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.ListRules(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

type upsertRewardRuleRequest struct {
	Key         string `json:"key" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Active      bool   `json:"active"`
}

func AdminUpsertRewardRule(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertRewardRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.UpsertRule(r.Context(), rewardsvc.UpsertRuleInput{
			Key:         payload.Key,
			AmountCents: payload.AmountCents,
			Active:      payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}
