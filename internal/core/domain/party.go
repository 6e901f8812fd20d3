package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11"
)

// PartyKind tags the stored shape of a Party.
type PartyKind string

const (
	PartyKindMobileMoney      PartyKind = "mobile_money"
	PartyKindLightningAddress PartyKind = "lightning_address"
	PartyKindLightningInvoice PartyKind = "lightning_invoice"
)

var (
	// Zambian MSISDN, with or without the 260 country code.
	zmPhonePattern          = regexp.MustCompile(`^(\+?260|0)?[79][5-7]\d{7}$`)
	lightningAddressPattern = regexp.MustCompile(`^[a-zA-Z0-9._+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Party identifies who sends or receives value on one leg.
// The set of implementations is closed: MobileMoneyParty, LightningAddressParty
// and LightningInvoiceParty.
type Party interface {
	Kind() PartyKind
	Validate() error
	// Display is a short human label, used in logs and refund tickets.
	Display() string
	isParty()
}

// MobileMoneyParty is a mobile-money wallet identified by phone number.
type MobileMoneyParty struct {
	Phone string `json:"phone"`
}

func (MobileMoneyParty) Kind() PartyKind   { return PartyKindMobileMoney }
func (p MobileMoneyParty) Display() string { return p.Phone }
func (MobileMoneyParty) isParty()          {}

func (p MobileMoneyParty) Validate() error {
	if !IsValidMobileNumber(p.Phone) {
		return fmt.Errorf("invalid mobile money number %q", p.Phone)
	}
	return nil
}

// LightningAddressParty is a user@domain Lightning address resolved via LNURL-pay.
type LightningAddressParty struct {
	Address string `json:"address"`
}

func (LightningAddressParty) Kind() PartyKind   { return PartyKindLightningAddress }
func (p LightningAddressParty) Display() string { return p.Address }
func (LightningAddressParty) isParty()          {}

func (p LightningAddressParty) Validate() error {
	if !lightningAddressPattern.MatchString(p.Address) {
		return fmt.Errorf("invalid lightning address %q", p.Address)
	}
	return nil
}

// LightningInvoiceParty is a BOLT11 payment request supplied by the recipient.
type LightningInvoiceParty struct {
	Invoice string `json:"invoice"`
}

func (LightningInvoiceParty) Kind() PartyKind { return PartyKindLightningInvoice }
func (LightningInvoiceParty) isParty()        {}

func (p LightningInvoiceParty) Display() string {
	if len(p.Invoice) > 24 {
		return p.Invoice[:24] + "..."
	}
	return p.Invoice
}

func (p LightningInvoiceParty) Validate() error {
	if _, err := bolt11.Decode(p.Invoice); err != nil {
		return fmt.Errorf("lightning invoice must be a BOLT11 payment request: %w", err)
	}
	return nil
}

// IsValidMobileNumber reports whether phone looks like a Zambian mobile number.
func IsValidMobileNumber(phone string) bool {
	return zmPhonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// IsLightningDestination reports whether p can receive a Lightning payment.
func IsLightningDestination(p Party) bool {
	switch p.(type) {
	case LightningAddressParty, LightningInvoiceParty:
		return true
	default:
		return false
	}
}

type partyEnvelope struct {
	Kind    PartyKind `json:"kind"`
	Phone   string    `json:"phone,omitempty"`
	Address string    `json:"address,omitempty"`
	Invoice string    `json:"invoice,omitempty"`
}

var errNilParty = errors.New("party is required")

// MarshalParty encodes p as a tagged JSON object.
func MarshalParty(p Party) ([]byte, error) {
	if p == nil {
		return nil, errNilParty
	}
	env := partyEnvelope{Kind: p.Kind()}
	switch v := p.(type) {
	case MobileMoneyParty:
		env.Phone = v.Phone
	case LightningAddressParty:
		env.Address = v.Address
	case LightningInvoiceParty:
		env.Invoice = v.Invoice
	default:
		return nil, fmt.Errorf("unknown party type %T", p)
	}
	return json.Marshal(env)
}

// UnmarshalParty decodes a tagged JSON object produced by MarshalParty.
// A nil or empty payload yields a nil Party.
func UnmarshalParty(data []byte) (Party, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env partyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode party: %w", err)
	}
	switch env.Kind {
	case PartyKindMobileMoney:
		return MobileMoneyParty{Phone: env.Phone}, nil
	case PartyKindLightningAddress:
		return LightningAddressParty{Address: env.Address}, nil
	case PartyKindLightningInvoice:
		return LightningInvoiceParty{Invoice: env.Invoice}, nil
	default:
		return nil, fmt.Errorf("unknown party kind %q", env.Kind)
	}
}
