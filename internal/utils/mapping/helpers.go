package mapping

import "github.com/SscSPs/btc_momo_exchange/internal/core/domain"

// nullString maps "" to NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// encodeParty stores an absent party as SQL NULL.
func encodeParty(p domain.Party) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return domain.MarshalParty(p)
}
