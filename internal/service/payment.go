package service

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

// ErrPaymentDeclined is returned when the payment gateway refuses a
// charge.  The booking stays PENDING and any reservation lock is
// released so the room returns to the pool.
var ErrPaymentDeclined = errors.New("payment declined")

// SimulatedGateway is the default PaymentGateway: it approves every
// charge and hands back a generated reference.  Deployments with a real
// processor swap in their own implementation of the interface.
type SimulatedGateway struct{}

// Charge approves the charge and returns a fresh payment reference.
func (SimulatedGateway) Charge(_ context.Context, bookingID uint64, amountCents uint32) (string, error) {
	ref, err := utils.NewPaymentRef()
	if err != nil {
		return "", err
	}
	log.Printf("payment: charged booking %d amount %d cents ref %s", bookingID, amountCents, ref)
	return ref, nil
}

// Refund approves the refund.
func (SimulatedGateway) Refund(_ context.Context, paymentRef string, amountCents uint32) error {
	log.Printf("payment: refunded %d cents on ref %s", amountCents, paymentRef)
	return nil
}
