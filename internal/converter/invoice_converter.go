package converter

import (
	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/domain/entity"
)

// InvoiceToResponse converts an Invoice aggregate to InvoiceResponse DTO.
// Total, BalanceDue and OverpaidAmount are derived here, never read from storage.
func InvoiceToResponse(invoice *entity.Invoice) *dto.InvoiceResponse {
	if invoice == nil {
		return nil
	}

	response := &dto.InvoiceResponse{
		ID:             invoice.ID,
		VisitID:        invoice.VisitID,
		Status:         string(invoice.Status),
		Subtotal:       invoice.Subtotal,
		Discount:       invoice.Discount,
		Tax:            invoice.Tax,
		Total:          invoice.Total(),
		PaidTotal:      invoice.PaidTotal,
		BalanceDue:     invoice.BalanceDue(),
		OverpaidAmount: invoice.OverpaidAmount(),
		Items:          make([]dto.InvoiceItemResponse, len(invoice.Items)),
		Payments:       make([]dto.PaymentResponse, len(invoice.Payments)),
		IssuedAt:       invoice.IssuedAt,
		VoidedAt:       invoice.VoidedAt,
		CreatedAt:      invoice.CreatedAt,
		UpdatedAt:      invoice.UpdatedAt,
	}

	for i, item := range invoice.Items {
		response.Items[i] = dto.InvoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Category:    string(item.Category),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			CreatedAt:   item.CreatedAt,
		}
	}

	for i, payment := range invoice.Payments {
		response.Payments[i] = dto.PaymentResponse{
			ID:        payment.ID,
			Amount:    payment.Amount,
			Method:    string(payment.Method),
			Reference: payment.Reference,
			CreatedAt: payment.CreatedAt,
		}
	}

	if invoice.Receipt != nil {
		number := invoice.Receipt.ReceiptNumber
		response.ReceiptNumber = &number
	}

	return response
}

// ReceiptToResponse converts a Receipt entity to ReceiptResponse DTO
func ReceiptToResponse(receipt *entity.Receipt) *dto.ReceiptResponse {
	if receipt == nil {
		return nil
	}

	return &dto.ReceiptResponse{
		ID:            receipt.ID,
		InvoiceID:     receipt.InvoiceID,
		ReceiptNumber: receipt.ReceiptNumber,
		Snapshot:      []byte(receipt.Snapshot),
		CreatedAt:     receipt.CreatedAt,
		UpdatedAt:     receipt.UpdatedAt,
	}
}
