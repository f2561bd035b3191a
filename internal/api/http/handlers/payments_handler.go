package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/internal/api/dto"
	"github.com/spec-kit/servicehub-platform/internal/service"
)

// PaymentsHandler exposes payment lookup endpoints.
type PaymentsHandler struct {
	service *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{service: paymentService}
}

// List GET /payments.
func (h *PaymentsHandler) List(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	payments, meta, err := h.service.FindAll(c.UserContext(), service.PaymentListInput{
		InvoiceID: optionalQuery(c, "invoiceId"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return pageResponse(c, items, meta)
}

// Get GET /payments/:id.
func (h *PaymentsHandler) Get(c *fiber.Ctx) error {
	payment, err := h.service.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, paymentResponse(payment))
}
