package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrStockConflict       = errors.New("stock update conflict")

	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidPromo        = errors.New("promo code rejected")
	ErrShippingUnavailable = errors.New("shipping unavailable")
	ErrPaymentDeclined     = errors.New("payment declined")
	ErrPaymentTimeout      = fmt.Errorf("payment timeout: %w", ErrPaymentDeclined)
	ErrCheckoutCanceled    = errors.New("checkout canceled")
	ErrReservationExpired  = errors.New("stock reservation expired")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status transition invalid")

	ErrPromoCodeNotFound = errors.New("promo code not found")
	ErrPromoCodeExists   = errors.New("promo code already exists")
	ErrPromoCodeInvalid  = errors.New("promo code definition invalid")

	ErrSupplierNotFound          = errors.New("supplier not found")
	ErrSupplierInvalid           = errors.New("supplier invalid")
	ErrPurchaseOrderNotFound     = errors.New("purchase order not found")
	ErrPurchaseOrderEmpty        = errors.New("purchase order has no lines")
	ErrPurchaseOrderNotPending   = errors.New("purchase order is not pending")
	ErrPurchaseOrderItemNotFound = errors.New("purchase order item not found")
	ErrInvalidUnitPrice          = errors.New("invalid unit price")
	ErrOverReceipt               = errors.New("received quantity exceeds ordered quantity")
)

// InsufficientStockError 库存不足，携带商品信息
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// PromoRejectedError 优惠码校验失败，Reason 取值见 constants.PromoReject*
type PromoRejectedError struct {
	Code   string
	Reason string
}

func (e *PromoRejectedError) Error() string {
	return fmt.Sprintf("promo code %q rejected: %s", e.Code, e.Reason)
}

func (e *PromoRejectedError) Unwrap() error {
	return ErrInvalidPromo
}

// OverReceiptError 采购明细超收
type OverReceiptError struct {
	ItemID      uint
	Outstanding int
	Requested   int
}

func (e *OverReceiptError) Error() string {
	return fmt.Sprintf("over receipt on purchase order item %d: requested %d, outstanding %d", e.ItemID, e.Requested, e.Outstanding)
}

func (e *OverReceiptError) Unwrap() error {
	return ErrOverReceipt
}
