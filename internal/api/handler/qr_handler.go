package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qrforge/qr-service/internal/api/metrics"
	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// QRHandler handles HTTP requests for QR generation and retrieval.
type QRHandler struct {
	service ports.QRService
}

func NewQRHandler(service ports.QRService) *QRHandler {
	return &QRHandler{service: service}
}

// Generate handles POST /v1/qr/generate.
//
// @Summary      Generate a QR code
// @Description  Counts against the plan quota. Email delivery requires a plan with the Email Delivery feature.
// @Tags         qr
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string           false  "Replays the first result for the same key"
// @Param        body             body      generateRequest  true   "Text and options"
// @Success      200              {object}  generateResponse
// @Failure      400              {object}  map[string]any
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  map[string]any
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/qr/generate [post]
func (h *QRHandler) Generate(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req generateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Issue(c.Request().Context(), ports.IssueQRInput{
		UserID:         userID,
		Text:           req.Text,
		Color:          req.Color,
		EmailTarget:    req.EmailTarget,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		var limitErr *domain.LimitExceededError
		if errors.As(err, &limitErr) {
			metrics.LimitExceededTotal.WithLabelValues(limitErr.Tier).Inc()
		}
		return err
	}

	if res.Replayed {
		metrics.IdempotentReplaysTotal.Inc()
		c.Response().Header().Set("Idempotent-Replayed", "true")
	} else {
		metrics.CodesIssuedTotal.WithLabelValues(res.Tier).Inc()
		if res.EmailStatus != domain.EmailSkipped {
			metrics.EmailDeliveriesTotal.WithLabelValues(string(res.EmailStatus)).Inc()
		}
	}

	return c.JSON(http.StatusOK, toGenerateResponse(res))
}

// History handles GET /v1/qr/history.
//
// @Summary      List generated QR codes
// @Tags         qr
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  historyResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/qr/history [get]
func (h *QRHandler) History(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	records, err := h.service.History(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.QRRecord{}
	}

	return c.JSON(http.StatusOK, historyResponse{Success: true, Count: len(records), QRCodes: records})
}

// Download handles GET /v1/qr/:id/download.
//
// @Summary      Download a QR image
// @Tags         qr
// @Produce      png
// @Security     BearerAuth
// @Param        id   path      string  true  "QR code id"
// @Success      200  {file}    binary
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/qr/{id}/download [get]
func (h *QRHandler) Download(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	dl, err := h.service.Download(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.DownloadsTotal.Inc()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+dl.Record.ID+`.png"`)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(dl.Image)))
	return c.Blob(http.StatusOK, "image/png", dl.Image)
}
