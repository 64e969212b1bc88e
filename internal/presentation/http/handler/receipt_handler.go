package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/request"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/response"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/middleware"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/sangkips/fixdesk-api/pkg/pagination"
)

// ReceiptHandler handles draft building, issuance and reversal of receipts
type ReceiptHandler struct {
	receipts  *service.ReceiptService
	issuance  *service.IssuanceService
	reversals *service.ReversalService
	tickets   *service.TicketBridge
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(pos *service.POS) *ReceiptHandler {
	return &ReceiptHandler{
		receipts:  pos.Receipts,
		issuance:  pos.Issuance,
		reversals: pos.Reversals,
		tickets:   pos.Tickets,
	}
}

// Create starts a draft receipt in an open session.
func (h *ReceiptHandler) Create(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req request.CreateReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.receipts.CreateDraft(c.Request.Context(), req.SessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Draft receipt created", receipt)
}

// List handles listing receipts with page pagination
func (h *ReceiptHandler) List(c *gin.Context) {
	var req request.ReceiptFilterRequest
	if !bindQuery(c, &req) {
		return
	}

	params := &repository.ReceiptFilterParams{
		Pagination: &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
		Status:     strings.ToUpper(req.Status),
		Type:       strings.ToUpper(req.Type),
	}
	if req.SessionID != "" {
		id := uuid.MustParse(req.SessionID)
		params.SessionID = &id
	}
	if req.LocationID != "" {
		id := uuid.MustParse(req.LocationID)
		params.LocationID = &id
	}

	receipts, total, err := h.receipts.ListReceipts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := pagination.NewPage(params.Pagination.Page, params.Pagination.PerPage, total)
	response.SuccessWithPagination(c, 200, "Receipts retrieved successfully", pagination.NewResult(receipts, page))
}

// Get returns a receipt with its lines.
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receipts.GetReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt retrieved successfully", receipt)
}

// AddItem appends a line to a draft and takes its stock.
func (h *ReceiptHandler) AddItem(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req request.ReceiptItemRequest
	if !bindJSON(c, &req) {
		return
	}
	line, err := toLineInput(req, "item")
	if err != nil {
		response.Error(c, err)
		return
	}

	receipt, item, err := h.receipts.AddItem(c.Request.Context(), id, line)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Item added", gin.H{
		"receipt": receipt,
		"item":    item,
	})
}

// RemoveItem drops a draft line and returns its stock.
func (h *ReceiptHandler) RemoveItem(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramUUID(c, "item_id")
	if !ok {
		return
	}

	receipt, err := h.receipts.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item removed", receipt)
}

// Issue finalizes a draft.
func (h *ReceiptHandler) Issue(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req request.IssueReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.issuance.Issue(c.Request.Context(), id, userID, service.IssueInput{
		Payment:        toPayment(req.Payment),
		Buyer:          toBuyer(req.Buyer),
		DiscountAmount: req.DiscountAmount,
		IdempotencyKey: middleware.GetIdempotencyKey(c),
	})
	respondIssued(c, result, err, "Receipt issued")
}

// Checkout builds and issues a receipt in one call.
func (h *ReceiptHandler) Checkout(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req request.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := toQuickIssue(req, middleware.GetIdempotencyKey(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.issuance.QuickIssue(c.Request.Context(), userID, in)
	respondIssued(c, result, err, "Receipt issued")
}

// Void cancels an issued sale of the current day.
func (h *ReceiptHandler) Void(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req request.VoidReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.reversals.Void(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt voided", receipt)
}

// Refund issues a refund receipt against an issued sale.
func (h *ReceiptHandler) Refund(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req request.RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.reversals.Refund(c.Request.Context(), id, userID, toRefund(req, middleware.GetIdempotencyKey(c)))
	respondIssued(c, result, err, "Refund issued")
}

// DeliverTicket issues the receipt of a delivered repair ticket.
func (h *ReceiptHandler) DeliverTicket(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	ticketID, ok := paramUUID(c, "ticket_id")
	if !ok {
		return
	}
	var req request.TicketDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.tickets.IssueForTicketDelivery(c.Request.Context(), userID, service.TicketDeliveryInput{
		TicketID:   ticketID,
		LocationID: req.LocationID,
		Payment:    toPayment(req.Payment),
	})
	respondIssued(c, result, err, "Ticket receipt issued")
}

// respondIssued answers 201 for a fresh receipt and 200 for a replay.
func respondIssued(c *gin.Context, result *service.IssueResult, err error, message string) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if result == nil || result.Receipt == nil {
		response.Error(c, apperror.ErrInternalServer)
		return
	}
	if result.Replayed {
		response.Replayed(c, message, result.Receipt)
		return
	}
	response.Created(c, message, result.Receipt)
}
