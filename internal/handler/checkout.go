package handler

import (
	"net/http"

	"github.com/getmeachai/backend/internal/domain"
	"github.com/getmeachai/backend/internal/service"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	svc      *service.CheckoutService
	validate *validator.Validate
}

func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, validate: validator.New()}
}

// Create handles POST /api/checkout.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		Error(w, domain.ErrBadRequest("invalid checkout request: "+err.Error()))
		return
	}

	resp, err := h.svc.CreateOrder(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}
