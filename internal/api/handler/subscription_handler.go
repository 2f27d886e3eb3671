package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrforge/qr-service/internal/api/metrics"
	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

type SubscriptionHandler struct {
	catalog ports.PlanCatalog
	service ports.SubscriptionService
}

func NewSubscriptionHandler(catalog ports.PlanCatalog, service ports.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{catalog: catalog, service: service}
}

// ListPlans handles GET /v1/subscriptions/plans.
//
// @Summary      List subscription plans
// @Tags         subscriptions
// @Produce      json
// @Success      200  {object}  plansResponse
// @Router       /v1/subscriptions/plans [get]
func (h *SubscriptionHandler) ListPlans(c echo.Context) error {
	plans, err := h.catalog.ListPlans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plansResponse{Success: true, Plans: plans})
}

// Subscribe handles POST /v1/subscriptions/subscribe.
//
// @Summary      Change plan
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      subscribeRequest  true  "Target plan"
// @Success      200   {object}  subscribeResponse
// @Failure      400   {object}  map[string]any
// @Failure      404   {object}  errorResponse
// @Router       /v1/subscriptions/subscribe [post]
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req subscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Subscribe(c.Request().Context(), userID, req.PlanID)
	if err != nil {
		return err
	}

	metrics.SubscriptionChangesTotal.WithLabelValues(res.Tier).Inc()
	return c.JSON(http.StatusOK, subscribeResponse{
		Success: true,
		Message: "Successfully subscribed to " + res.Tier + " plan",
		Subscription: subscriptionView{
			Tier:         res.Tier,
			Features:     res.Features,
			SubscribedAt: res.SubscribedAt,
		},
	})
}

// Current handles GET /v1/subscriptions/me.
//
// @Summary      Current plan and usage
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  currentSubscriptionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/subscriptions/me [get]
func (h *SubscriptionHandler) Current(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	cur, err := h.service.Current(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, currentSubscriptionResponse{
		Success:      true,
		Subscription: toCurrentSubscriptionView(cur),
	})
}

// History handles GET /v1/subscriptions/history.
//
// @Summary      Subscription history
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  subscriptionHistoryResponse
// @Router       /v1/subscriptions/history [get]
func (h *SubscriptionHandler) History(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	entries, err := h.service.History(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.SubscriptionHistoryEntry{}
	}

	return c.JSON(http.StatusOK, subscriptionHistoryResponse{Success: true, Count: len(entries), History: entries})
}
