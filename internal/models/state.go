package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDirection = errors.New("direction must be collect or payout")
	ErrInvalidKey       = errors.New("invalid fulfillment key")
)

// Direction says which way money moves for a settlement entry.
type Direction string

const (
	// DirectionCollect: the participant owes the shop (pay-in).
	DirectionCollect Direction = "collect"
	// DirectionPayout: the shop owes the participant (pay-out).
	DirectionPayout Direction = "payout"
)

// ParseDirection accepts "collect"/"payout" and the pay_in/pay_out aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "collect", "pay_in", "payin":
		return DirectionCollect, nil
	case "payout", "pay_out":
		return DirectionPayout, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// FulfillmentKey identifies one obligation in the payment-status ledger.
type FulfillmentKey struct {
	WindowID      string    `json:"window_id"`
	Direction     Direction `json:"direction"`
	ParticipantID string    `json:"participant_id"`
}

func (k FulfillmentKey) Validate() error {
	if k.WindowID == "" {
		return fmt.Errorf("%w: window id must not be empty", ErrInvalidKey)
	}
	if k.Direction != DirectionCollect && k.Direction != DirectionPayout {
		return fmt.Errorf("%w: %w", ErrInvalidKey, ErrInvalidDirection)
	}
	if k.ParticipantID == "" {
		return fmt.Errorf("%w: participant id must not be empty", ErrInvalidKey)
	}
	return nil
}
