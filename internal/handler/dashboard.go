package handler

import (
	"net/http"
	"strconv"

	"github.com/getmeachai/backend/internal/contextkeys"
	"github.com/getmeachai/backend/internal/domain"
	"github.com/getmeachai/backend/internal/repository"
	"github.com/go-chi/chi/v5"
)

// DashboardHandler serves the creator dashboard's read endpoints.
type DashboardHandler struct {
	payments  *repository.PaymentRepository
	campaigns *repository.CampaignRepository
	creators  *repository.CreatorRepository
}

func NewDashboardHandler(payments *repository.PaymentRepository, campaigns *repository.CampaignRepository, creators *repository.CreatorRepository) *DashboardHandler {
	return &DashboardHandler{payments: payments, campaigns: campaigns, creators: creators}
}

// ListPayments handles GET /api/payments.
func (h *DashboardHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	username, ok := r.Context().Value(contextkeys.Username).(string)
	if !ok || username == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	payments, err := h.payments.ListByCreator(r.Context(), username, limit)
	if err != nil {
		Error(w, err)
		return
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}

	JSON(w, http.StatusOK, payments)
}

// CreatorStats handles GET /api/me/stats.
func (h *DashboardHandler) CreatorStats(w http.ResponseWriter, r *http.Request) {
	username, ok := r.Context().Value(contextkeys.Username).(string)
	if !ok || username == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	creator, err := h.creators.FindByUsername(r.Context(), username)
	if err != nil {
		Error(w, err)
		return
	}
	if creator == nil {
		Error(w, domain.ErrNotFound("creator not found"))
		return
	}

	JSON(w, http.StatusOK, creator)
}

// CampaignStats handles GET /api/campaigns/{id}/stats.
func (h *DashboardHandler) CampaignStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	campaign, err := h.campaigns.FindByID(r.Context(), id)
	if err != nil {
		Error(w, err)
		return
	}
	if campaign == nil {
		Error(w, domain.ErrNotFound("campaign not found"))
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"campaignId":      campaign.ID,
		"currentAmount":   campaign.CurrentAmount,
		"supportersCount": campaign.SupportersCount,
		"goalAmount":      campaign.GoalAmount,
	})
}
