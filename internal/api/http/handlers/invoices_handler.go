package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/internal/api/dto"
	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/service"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// InvoicesHandler exposes invoice endpoints.
type InvoicesHandler struct {
	invoices *service.InvoiceService
	payments *service.PaymentService
}

// NewInvoicesHandler constructs handler.
func NewInvoicesHandler(invoices *service.InvoiceService, payments *service.PaymentService) *InvoicesHandler {
	return &InvoicesHandler{invoices: invoices, payments: payments}
}

// Create POST /invoices.
func (h *InvoicesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return util.NewUnauthorized("user required")
	}
	var req dto.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	lines := make([]service.InvoiceLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.InvoiceLineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TicketID:    line.TicketID,
		})
	}
	invoice, err := h.invoices.Create(c.UserContext(), principal.User.ID, service.InvoiceCreateInput{
		Lines:   lines,
		TaxRate: req.TaxRate,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	})
	if err != nil {
		return err
	}
	return createdResponse(c, invoiceResponse(invoice))
}

// List GET /invoices.
func (h *InvoicesHandler) List(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	input := service.InvoiceListInput{Page: page, Limit: limit}
	if status := c.Query("status"); status != "" {
		s := domain.InvoiceStatus(status)
		if !domain.ValidInvoiceStatus(s) {
			return util.NewValidationError("unknown status", map[string]any{"status": status})
		}
		input.Status = &s
	}

	invoices, meta, err := h.invoices.FindAll(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, invoiceResponse(&invoices[i]))
	}
	return pageResponse(c, items, meta)
}

// Get GET /invoices/:id.
func (h *InvoicesHandler) Get(c *fiber.Ctx) error {
	invoice, err := h.invoices.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, invoiceResponse(invoice))
}

// Send POST /invoices/:id/send.
func (h *InvoicesHandler) Send(c *fiber.Ctx) error {
	invoice, err := h.invoices.Send(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, invoiceResponse(invoice))
}

// Cancel POST /invoices/:id/cancel.
func (h *InvoicesHandler) Cancel(c *fiber.Ctx) error {
	invoice, err := h.invoices.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, invoiceResponse(invoice))
}

// Delete DELETE /invoices/:id.
func (h *InvoicesHandler) Delete(c *fiber.Ctx) error {
	if err := h.invoices.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordPayment POST /invoices/:id/payments.
func (h *InvoicesHandler) RecordPayment(c *fiber.Ctx) error {
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if !req.Amount.IsPositive() {
		return util.NewValidationError("amount must be positive", nil)
	}
	payment, err := h.payments.Record(c.UserContext(), c.Params("id"), req.Amount, req.Method, req.Reference)
	if err != nil {
		return err
	}
	return createdResponse(c, paymentResponse(payment))
}

// ListPayments GET /invoices/:id/payments.
func (h *InvoicesHandler) ListPayments(c *fiber.Ctx) error {
	payments, err := h.payments.ListByInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return dataResponse(c, items)
}

// Stats GET /invoices/stats.
func (h *InvoicesHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.invoices.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return dataResponse(c, dto.BillingStatsResponse{
		Total:          stats.Total,
		ByStatus:       stats.ByStatus,
		RevenueTotal:   stats.RevenueTotal,
		RevenuePending: stats.RevenuePending,
	})
}

func invoiceResponse(invoice *domain.Invoice) dto.InvoiceResponse {
	lines := make([]dto.InvoiceLineResponse, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		lines = append(lines, dto.InvoiceLineResponse{
			ID:          line.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       line.Total,
			TicketID:    line.TicketID,
		})
	}
	payments := make([]dto.PaymentResponse, 0, len(invoice.Payments))
	for i := range invoice.Payments {
		payments = append(payments, paymentResponse(&invoice.Payments[i]))
	}
	return dto.InvoiceResponse{
		ID:          invoice.ID,
		Reference:   invoice.Reference,
		Status:      invoice.Status,
		IssueDate:   invoice.IssueDate,
		DueDate:     invoice.DueDate,
		Subtotal:    invoice.Subtotal,
		TaxRate:     invoice.TaxRate,
		TaxAmount:   invoice.TaxAmount,
		Total:       invoice.Total,
		Notes:       invoice.Notes,
		CreatedByID: invoice.CreatedByID,
		Lines:       lines,
		Payments:    payments,
		CreatedAt:   invoice.CreatedAt,
		UpdatedAt:   invoice.UpdatedAt,
	}
}

func paymentResponse(payment *domain.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:        payment.ID,
		InvoiceID: payment.InvoiceID,
		Amount:    payment.Amount,
		Method:    payment.Method,
		Reference: payment.Reference,
		PaidAt:    payment.PaidAt,
		CreatedAt: payment.CreatedAt,
	}
}
