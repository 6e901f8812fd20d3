package pgsql

import (
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:        newPgxTxManager(dbPool),
		LiquidityRepo:    newPgxLiquidityRepository(dbPool),
		TransactionRepo:  newPgxTransactionRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		RefundRepo:       newPgxRefundRepository(dbPool),
		CursorRepo:       newPgxCursorRepository(dbPool),
	}
}
