// Package bolt11test signs throwaway mainnet invoices for tests.
package bolt11test

import (
	"bytes"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/keychain"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
)

var signer = func() *keychain.PrivKeyMessageSigner {
	key, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x11}, 32))
	return keychain.NewPrivKeyMessageSigner(key, keychain.KeyLocator{})
}()

// NewInvoice returns a signed invoice for amountSats created now.
// An amount of zero produces an amountless invoice.
func NewInvoice(t testing.TB, amountSats int64) string {
	t.Helper()
	return NewInvoiceAt(t, amountSats, time.Now(), time.Hour)
}

// NewInvoiceAt returns a signed invoice created at ts that expires after expiry.
func NewInvoiceAt(t testing.TB, amountSats int64, ts time.Time, expiry time.Duration) string {
	t.Helper()
	hash := sha256.Sum256([]byte(ts.String()))
	opts := []func(*zpay32.Invoice){
		zpay32.Description("exchange test"),
		zpay32.Expiry(expiry),
	}
	if amountSats > 0 {
		opts = append(opts, zpay32.Amount(lnwire.MilliSatoshi(amountSats*1000)))
	}
	inv, err := zpay32.NewInvoice(&chaincfg.MainNetParams, hash, ts, opts...)
	if err != nil {
		t.Fatalf("build invoice: %v", err)
	}
	pr, err := inv.Encode(zpay32.MessageSigner{
		SignCompact: func(msg []byte) ([]byte, error) {
			return signer.SignMessageCompact(msg, false)
		},
	})
	if err != nil {
		t.Fatalf("encode invoice: %v", err)
	}
	return pr
}
