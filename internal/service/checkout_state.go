package service

import (
	"time"

	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/metrics"
)

// CheckoutState 结算状态机状态
type CheckoutState int

const (
	CheckoutStart CheckoutState = iota
	CheckoutCartLoaded
	CheckoutPriced
	CheckoutStockReserved
	CheckoutPaymentSettled
	CheckoutCommitted
	CheckoutAborted
)

var checkoutStateNames = map[CheckoutState]string{
	CheckoutStart:          "start",
	CheckoutCartLoaded:     "cart_loaded",
	CheckoutPriced:         "priced",
	CheckoutStockReserved:  "stock_reserved",
	CheckoutPaymentSettled: "payment_settled",
	CheckoutCommitted:      "committed",
	CheckoutAborted:        "aborted",
}

func (s CheckoutState) String() string {
	if name, ok := checkoutStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// checkoutRun 单次结算尝试的运行记录
type checkoutRun struct {
	attemptID string
	userID    uint
	state     CheckoutState
	startedAt time.Time
	metrics   *metrics.Metrics
}

func newCheckoutRun(attemptID string, userID uint, m *metrics.Metrics) *checkoutRun {
	return &checkoutRun{
		attemptID: attemptID,
		userID:    userID,
		state:     CheckoutStart,
		startedAt: time.Now(),
		metrics:   m,
	}
}

// advance 仅允许按顺序前进一步
func (r *checkoutRun) advance(next CheckoutState) {
	if r.state == CheckoutAborted || r.state == CheckoutCommitted || next != r.state+1 {
		logger.Errorw("checkout_state_out_of_order",
			"attempt_id", r.attemptID,
			"from", r.state.String(),
			"to", next.String(),
		)
		return
	}
	logger.Debugw("checkout_state_transition",
		"attempt_id", r.attemptID,
		"user_id", r.userID,
		"from", r.state.String(),
		"to", next.String(),
	)
	r.state = next
	r.metrics.CheckoutTransition(next.String())
	if next == CheckoutCommitted {
		r.metrics.CheckoutFinished("committed", time.Since(r.startedAt))
	}
}

// abort 任意状态均可进入 Aborted
func (r *checkoutRun) abort(err error) error {
	if r.state == CheckoutAborted || r.state == CheckoutCommitted {
		return err
	}
	logger.Infow("checkout_aborted",
		"attempt_id", r.attemptID,
		"user_id", r.userID,
		"from", r.state.String(),
		"error", err,
	)
	r.state = CheckoutAborted
	r.metrics.CheckoutTransition(CheckoutAborted.String())
	r.metrics.CheckoutFinished(checkoutOutcome(err), time.Since(r.startedAt))
	return err
}
