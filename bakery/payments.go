package bakery

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Simulated gateway success rates.
const (
	PaymentSuccessRate = 0.70
	RefundSuccessRate  = 0.95
)

// Transaction is the outcome of a simulated payment or refund.
type Transaction struct {
	Success   bool      `json:"success"`
	ID        string    `json:"transaction_id,omitempty"`
	OrderID   int64     `json:"order_id"`
	Amount    float64   `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Gateway simulates a payment processor.
type Gateway struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	clock func() time.Time
}

// NewGateway creates a gateway drawing from rnd. A nil rnd is seeded from the clock.
func NewGateway(rnd *rand.Rand, clock func() time.Time) *Gateway {
	if clock == nil {
		clock = time.Now
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(clock().UnixNano())) //nolint:gosec // simulation only
	}
	return &Gateway{rnd: rnd, clock: clock}
}

// Charge attempts to charge amount for order.
func (g *Gateway) Charge(orderID int64, amount float64) Transaction {
	ok, suffix := g.draw(PaymentSuccessRate)

	tx := Transaction{Success: ok, OrderID: orderID, Amount: amount, Timestamp: g.clock().UTC()}
	if ok {
		tx.ID = fmt.Sprintf("pay_%d_%s", orderID, suffix)
		tx.Message = "Payment processed successfully"
	} else {
		tx.Message = "Payment failed"
	}

	return tx
}

// Refund attempts to refund order.
func (g *Gateway) Refund(orderID int64, amount float64) Transaction {
	ok, suffix := g.draw(RefundSuccessRate)

	tx := Transaction{Success: ok, OrderID: orderID, Amount: amount, Timestamp: g.clock().UTC()}
	if ok {
		tx.ID = fmt.Sprintf("ref_%d_%s", orderID, suffix)
		tx.Message = "Refund processed successfully"
	} else {
		tx.Message = "Refund failed"
	}

	return tx
}

func (g *Gateway) draw(rate float64) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ok := g.rnd.Float64() < rate
	suffix := fmt.Sprintf("%06x", g.rnd.Int63()&0xffffff)

	return ok, suffix
}
