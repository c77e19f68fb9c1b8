package service

import (
	"strings"

	"github.com/bookstore-next/internal/constants"
)

var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPaid: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCanceled:   true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:  true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

func isOrderTransitionAllowed(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return false
	}
	return allowedOrderTransitions[from][to]
}

func isKnownOrderStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constants.OrderStatusPaid,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCanceled:
		return true
	default:
		return false
	}
}
