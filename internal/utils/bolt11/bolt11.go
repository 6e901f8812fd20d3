// Package bolt11 decodes Lightning payment requests offline.
package bolt11

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"
)

// ErrAmountMismatch is returned when an invoice encodes an amount other than
// the one the exchange intends to pay.
var ErrAmountMismatch = errors.New("invoice amount does not match")

// Invoice is the part of a decoded payment request the exchange relies on.
type Invoice struct {
	// AmountSats is zero for amountless invoices.
	AmountSats  int64
	PaymentHash string
	Network     string
	ExpiresAt   time.Time
}

// HasAmount reports whether the invoice fixes the amount to pay.
func (i *Invoice) HasAmount() bool {
	return i.AmountSats != 0
}

// Expired reports whether the invoice can no longer be paid at now.
func (i *Invoice) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Longer prefixes first: "lnbcrt" also starts with "lnbc", "lntbs" with "lntb".
var networks = []struct {
	prefix string
	params *chaincfg.Params
}{
	{"lnbcrt", &chaincfg.RegressionNetParams},
	{"lnbc", &chaincfg.MainNetParams},
	{"lntbs", &chaincfg.SigNetParams},
	{"lntb", &chaincfg.TestNet3Params},
	{"lnsb", &chaincfg.SimNetParams},
}

// Decode parses and verifies the signature of a BOLT11 payment request.
func Decode(paymentRequest string) (*Invoice, error) {
	pr := strings.ToLower(strings.TrimSpace(paymentRequest))
	pr = strings.TrimPrefix(pr, "lightning:")

	var params *chaincfg.Params
	for _, n := range networks {
		if strings.HasPrefix(pr, n.prefix) {
			params = n.params
			break
		}
	}
	if params == nil {
		return nil, fmt.Errorf("not a BOLT11 payment request")
	}

	inv, err := zpay32.Decode(pr, params)
	if err != nil {
		return nil, fmt.Errorf("decode payment request: %w", err)
	}

	out := &Invoice{
		Network:   params.Name,
		ExpiresAt: inv.Timestamp.Add(inv.Expiry()),
	}
	if inv.MilliSat != nil {
		msat := int64(*inv.MilliSat)
		if msat%1000 != 0 {
			return nil, fmt.Errorf("invoice amount %d msat is not a whole number of satoshis", msat)
		}
		out.AmountSats = msat / 1000
	}
	if inv.PaymentHash != nil {
		out.PaymentHash = fmt.Sprintf("%x", inv.PaymentHash[:])
	}
	return out, nil
}

// CheckAmount decodes paymentRequest and fails with ErrAmountMismatch unless
// it encodes exactly amountSats, or no amount when allowAmountless is set.
func CheckAmount(paymentRequest string, amountSats int64, allowAmountless bool) (*Invoice, error) {
	inv, err := Decode(paymentRequest)
	if err != nil {
		return nil, err
	}
	if !inv.HasAmount() {
		if allowAmountless {
			return inv, nil
		}
		return nil, fmt.Errorf("%w: invoice has no amount, expected %d sats", ErrAmountMismatch, amountSats)
	}
	if inv.AmountSats != amountSats {
		return nil, fmt.Errorf("%w: invoice encodes %d sats, expected %d", ErrAmountMismatch, inv.AmountSats, amountSats)
	}
	return inv, nil
}
