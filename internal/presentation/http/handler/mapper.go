package handler

import (
	"fmt"

	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/dto/request"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
)

// toLineInput maps a line request onto the catalog reference it names.
func toLineInput(req request.ReceiptItemRequest, field string) (service.LineInput, error) {
	kind, ok := enum.ParseItemKind(req.Kind)
	if !ok {
		return service.LineInput{}, apperror.NewFieldError(field+".kind", "unknown item kind")
	}

	var ref entity.ItemRef
	if kind == enum.ItemKindCustom {
		ref = entity.CustomRef{Description: req.Description}
	} else {
		if req.ItemID == nil {
			return service.LineInput{}, apperror.NewFieldError(field+".item_id", "is required for "+kind.String()+" lines")
		}
		id := *req.ItemID
		switch kind {
		case enum.ItemKindPhone:
			ref = entity.PhoneRef{ListingID: id}
		case enum.ItemKindSparePart:
			ref = entity.SparePartRef{PartID: id}
		case enum.ItemKindService:
			ref = entity.ServiceRef{ServiceID: id}
		case enum.ItemKindGoods:
			ref = entity.GoodsRef{GoodsID: id}
		case enum.ItemKindTicket:
			ref = entity.TicketRef{TicketID: id}
		}
	}

	return service.LineInput{
		Ref:         ref,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		DiscountPct: req.DiscountPct,
	}, nil
}

func toPayment(req request.PaymentRequest) service.PaymentInput {
	method, _ := enum.ParsePaymentMethod(req.Method)
	return service.PaymentInput{
		Method:         method,
		CashReceived:   req.CashReceived,
		CardAmount:     req.CardAmount,
		TransferAmount: req.TransferAmount,
	}
}

func toBuyer(req *request.BuyerRequest) *service.BuyerInput {
	if req == nil {
		return nil
	}
	return &service.BuyerInput{Name: req.Name, TaxID: req.TaxID}
}

func toQuickIssue(req request.CheckoutRequest, key string) (service.QuickIssueInput, error) {
	items := make([]service.LineInput, 0, len(req.Items))
	for i, item := range req.Items {
		line, err := toLineInput(item, fmt.Sprintf("items[%d]", i))
		if err != nil {
			return service.QuickIssueInput{}, err
		}
		items = append(items, line)
	}
	return service.QuickIssueInput{
		LocationID:     req.LocationID,
		Items:          items,
		Payment:        toPayment(req.Payment),
		Buyer:          toBuyer(req.Buyer),
		DiscountAmount: req.DiscountAmount,
		IdempotencyKey: key,
	}, nil
}

func toRefund(req request.RefundRequest, key string) service.RefundInput {
	lines := make([]service.RefundLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.RefundLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return service.RefundInput{Lines: lines, Reason: req.Reason, IdempotencyKey: key}
}
