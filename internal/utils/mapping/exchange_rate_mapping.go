package mapping

import (
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a model ExchangeRate
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		ID:        d.ID,
		Rate:      d.Rate,
		Source:    d.Source,
		FetchedAt: d.FetchedAt,
	}
}

// ToDomainExchangeRate converts a model ExchangeRate to a domain ExchangeRate
func ToDomainExchangeRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		ID:        m.ID,
		Rate:      m.Rate,
		Source:    m.Source,
		FetchedAt: m.FetchedAt.UTC(),
	}
}
