package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/apperrors"
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/core/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/utils/bolt11/bolt11test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const recipientPhone = "0971234567"

type ExchangeServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	txManager  *fakeTxManager
	liqRepo    *MockLiquidityRepository
	txRepo     *MockTransactionRepository
	refundRepo *MockRefundRepository
	assetRail  *MockAssetRail
	fiatRail   *MockFiatRail
	events     *recordingPublisher
	service    portssvc.ExchangeSvcFacade
}

func (suite *ExchangeServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.txManager = &fakeTxManager{}
	suite.liqRepo = new(MockLiquidityRepository)
	suite.txRepo = new(MockTransactionRepository)
	suite.refundRepo = new(MockRefundRepository)
	suite.assetRail = new(MockAssetRail)
	suite.fiatRail = new(MockFiatRail)
	suite.events = &recordingPublisher{}

	fees, err := services.NewFeeService(defaultSchedule())
	suite.Require().NoError(err)

	suite.service = services.NewExchangeService(services.ExchangeDeps{
		Repos: portsrepo.RepositoryProvider{
			TxManager:       suite.txManager,
			LiquidityRepo:   suite.liqRepo,
			TransactionRepo: suite.txRepo,
			RefundRepo:      suite.refundRepo,
		},
		Liquidity: services.NewLiquidityService(suite.liqRepo),
		Rates:     staticRate{quote: domain.RateQuote{Rate: decimal.NewFromInt(1_500_000), Source: "test", FetchedAt: suite.now}},
		Fees:      fees,
		AssetRail: suite.assetRail,
		FiatRail:  suite.fiatRail,
	},
		services.WithEventPublisher(suite.events),
		services.WithExchangeClock(func() time.Time { return suite.now }),
		services.WithRailTimeout(time.Second),
	)
}

func (suite *ExchangeServiceTestSuite) TearDownTest() {
	suite.liqRepo.AssertExpectations(suite.T())
	suite.txRepo.AssertExpectations(suite.T())
	suite.refundRepo.AssertExpectations(suite.T())
	suite.assetRail.AssertExpectations(suite.T())
	suite.fiatRail.AssertExpectations(suite.T())
}

func transitionTo(status domain.TransactionStatus) interface{} {
	return mock.MatchedBy(func(u domain.StatusUpdate) bool { return u.To == status })
}

// pendingAssetToFiat is a 100 ZMW BTC to ZMW exchange at 1,500,000 ZMW/BTC.
func pendingAssetToFiat() *domain.Transaction {
	return &domain.Transaction{
		ID:             uuid.NewString(),
		Direction:      domain.DirectionAssetToFiat,
		Status:         domain.StatusPending,
		AmountFiat:     decimal.NewFromInt(100),
		AmountSats:     6666,
		FeeFiat:        decimal.NewFromInt(5),
		FeeSats:        333,
		TotalFiat:      decimal.NewFromInt(105),
		TotalSats:      6999,
		ExchangeRate:   decimal.NewFromInt(1_500_000),
		Recipient:      domain.MobileMoneyParty{Phone: recipientPhone},
		AssetInvoiceID: "inv-1",
		PaymentHash:    "hash-1",
	}
}

func pendingFiatToAsset() *domain.Transaction {
	return &domain.Transaction{
		ID:               uuid.NewString(),
		Direction:        domain.DirectionFiatToAsset,
		Status:           domain.StatusPending,
		AmountFiat:       decimal.NewFromInt(100),
		AmountSats:       6666,
		FeeFiat:          decimal.NewFromInt(5),
		FeeSats:          333,
		TotalFiat:        decimal.NewFromInt(105),
		TotalSats:        6999,
		ExchangeRate:     decimal.NewFromInt(1_500_000),
		Sender:           domain.MobileMoneyParty{Phone: recipientPhone},
		Recipient:        domain.LightningAddressParty{Address: "alice@wallet.example"},
		FiatCollectionID: "col-1",
	}
}

// --- Creation ---

func (suite *ExchangeServiceTestSuite) TestCreateAssetToFiat_Success() {
	suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyZMW, "100").Return(nil).Once()
	expires := suite.now.Add(time.Hour)
	suite.assetRail.On("CreateInboundInstrument", mock.Anything, int64(6999), "BTC to ZMW exchange: 100.00 ZMW").
		Return(&rails.InboundInstrument{ExternalID: "inv-1", PaymentRequest: "lnbc1...", PaymentHash: "hash-1", ExpiresAt: expires}, nil).Once()
	suite.txRepo.On("SaveTransaction", suite.ctx, mock.MatchedBy(func(tx domain.Transaction) bool {
		return tx.Status == domain.StatusPending && tx.AssetInvoiceID == "inv-1" && tx.TotalSats == 6999
	})).Return(nil).Once()

	tx, err := suite.service.CreateAssetToFiat(suite.ctx, dto.CreateAssetToFiatRequest{
		AmountZMW:     decimal.NewFromInt(100),
		RecipientInfo: dto.PartyInfo{Phone: recipientPhone},
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, tx.Status)
	suite.Equal(int64(6666), tx.AmountSats)
	suite.Equal(int64(333), tx.FeeSats)
	suite.Equal(int64(6999), tx.TotalSats)
	suite.Equal("5", tx.FeeFiat.String())
	suite.Equal("lnbc1...", tx.PaymentRequest)
	suite.Require().NotNil(tx.InvoiceExpiresAt)
	suite.Equal(expires, *tx.InvoiceExpiresAt)
	suite.Equal([]gateways.EventType{gateways.EventTransactionCreated}, suite.events.types())
}

func (suite *ExchangeServiceTestSuite) TestCreateAssetToFiat_InsufficientLiquidity() {
	suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyZMW, "100").Return(apperrors.ErrInsufficientLiquidity).Once()

	tx, err := suite.service.CreateAssetToFiat(suite.ctx, dto.CreateAssetToFiatRequest{
		AmountZMW:     decimal.NewFromInt(100),
		RecipientInfo: dto.PartyInfo{Phone: recipientPhone},
	})

	suite.Nil(tx)
	suite.ErrorIs(err, apperrors.ErrInsufficientLiquidity)
	suite.assetRail.AssertNotCalled(suite.T(), "CreateInboundInstrument", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeServiceTestSuite) TestCreateAssetToFiat_InvoiceFailureReleasesReservation() {
	suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyZMW, "100").Return(nil).Once()
	suite.assetRail.On("CreateInboundInstrument", mock.Anything, int64(6999), mock.Anything).
		Return(nil, rails.NewError("voltage", "create invoice", 503, errors.New("unavailable"))).Once()
	suite.liqRepo.On("Release", mock.Anything, domain.CurrencyZMW, "100").Return(false, nil).Once()

	tx, err := suite.service.CreateAssetToFiat(suite.ctx, dto.CreateAssetToFiatRequest{
		AmountZMW:     decimal.NewFromInt(100),
		RecipientInfo: dto.PartyInfo{Phone: recipientPhone},
	})

	suite.Nil(tx)
	suite.ErrorIs(err, apperrors.ErrRail)
	suite.Empty(suite.events.events)
}

func (suite *ExchangeServiceTestSuite) TestCreateAssetToFiat_SaveFailureReleasesReservation() {
	suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyZMW, "100").Return(nil).Once()
	suite.assetRail.On("CreateInboundInstrument", mock.Anything, int64(6999), mock.Anything).
		Return(&rails.InboundInstrument{ExternalID: "inv-1"}, nil).Once()
	suite.txRepo.On("SaveTransaction", suite.ctx, mock.Anything).Return(errors.New("db down")).Once()
	suite.liqRepo.On("Release", mock.Anything, domain.CurrencyZMW, "100").Return(false, nil).Once()

	_, err := suite.service.CreateAssetToFiat(suite.ctx, dto.CreateAssetToFiatRequest{
		AmountZMW:     decimal.NewFromInt(100),
		RecipientInfo: dto.PartyInfo{Phone: recipientPhone},
	})

	suite.Error(err)
}

func (suite *ExchangeServiceTestSuite) TestCreateAssetToFiat_RejectsLightningRecipient() {
	_, err := suite.service.CreateAssetToFiat(suite.ctx, dto.CreateAssetToFiatRequest{
		AmountZMW:     decimal.NewFromInt(100),
		RecipientInfo: dto.PartyInfo{LightningAddress: "alice@wallet.example"},
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ExchangeServiceTestSuite) TestCreateAssetToFiat_RejectsBadAmount() {
	_, err := suite.service.CreateAssetToFiat(suite.ctx, dto.CreateAssetToFiatRequest{
		AmountZMW:     decimal.RequireFromString("-3"),
		RecipientInfo: dto.PartyInfo{Phone: recipientPhone},
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ExchangeServiceTestSuite) TestCreateFiatToAsset_Success() {
	sender := domain.MobileMoneyParty{Phone: recipientPhone}
	suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyBTC, "0.00006666").Return(nil).Once()
	suite.fiatRail.On("InitiateCollection", mock.Anything, "105", sender, mock.MatchedBy(func(ref string) bool {
		return strings.HasPrefix(ref, "ZMW-BTC-")
	})).Return(&rails.Collection{ExternalID: "col-1"}, nil).Once()
	suite.txRepo.On("SaveTransaction", suite.ctx, mock.MatchedBy(func(tx domain.Transaction) bool {
		return tx.FiatCollectionID == "col-1" && tx.FiatCollectionReference == "ZMW-BTC-"+tx.ID
	})).Return(nil).Once()

	tx, err := suite.service.CreateFiatToAsset(suite.ctx, dto.CreateFiatToAssetRequest{
		AmountZMW:     decimal.NewFromInt(100),
		SenderPhone:   recipientPhone,
		RecipientInfo: dto.PartyInfo{LightningAddress: "alice@wallet.example"},
	})

	suite.Require().NoError(err)
	suite.Equal(domain.DirectionFiatToAsset, tx.Direction)
	suite.Equal("105", tx.TotalFiat.String())
	suite.Equal(domain.LightningAddressParty{Address: "alice@wallet.example"}, tx.Recipient)
}

func (suite *ExchangeServiceTestSuite) TestCreateFiatToAsset_CollectionFailureReleasesReservation() {
	suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyBTC, "0.00006666").Return(nil).Once()
	suite.fiatRail.On("InitiateCollection", mock.Anything, "105", mock.Anything, mock.Anything).
		Return(nil, rails.NewError("lipila", "deposit", 400, errors.New("bad number"))).Once()
	suite.liqRepo.On("Release", mock.Anything, domain.CurrencyBTC, "0.00006666").Return(false, nil).Once()

	_, err := suite.service.CreateFiatToAsset(suite.ctx, dto.CreateFiatToAssetRequest{
		AmountZMW:     decimal.NewFromInt(100),
		SenderPhone:   recipientPhone,
		RecipientInfo: dto.PartyInfo{LightningAddress: "alice@wallet.example"},
	})

	suite.ErrorIs(err, apperrors.ErrRail)
}

func (suite *ExchangeServiceTestSuite) TestCreateFiatToAsset_RejectsPhoneRecipient() {
	_, err := suite.service.CreateFiatToAsset(suite.ctx, dto.CreateFiatToAssetRequest{
		AmountZMW:     decimal.NewFromInt(100),
		SenderPhone:   recipientPhone,
		RecipientInfo: dto.PartyInfo{Phone: recipientPhone},
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ExchangeServiceTestSuite) TestCreateFiatToAsset_RejectsInvoiceForOtherAmount() {
	invoice := bolt11test.NewInvoiceAt(suite.T(), 250_000, suite.now, time.Hour)

	tx, err := suite.service.CreateFiatToAsset(suite.ctx, dto.CreateFiatToAssetRequest{
		AmountZMW:     decimal.NewFromInt(100),
		SenderPhone:   recipientPhone,
		RecipientInfo: dto.PartyInfo{LightningInvoice: invoice},
	})

	suite.Nil(tx)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.liqRepo.AssertNotCalled(suite.T(), "Reserve", mock.Anything, mock.Anything, mock.Anything)
	suite.fiatRail.AssertNotCalled(suite.T(), "InitiateCollection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeServiceTestSuite) TestCreateFiatToAsset_RejectsExpiredInvoice() {
	invoice := bolt11test.NewInvoiceAt(suite.T(), 6666, suite.now.Add(-2*time.Hour), time.Hour)

	_, err := suite.service.CreateFiatToAsset(suite.ctx, dto.CreateFiatToAssetRequest{
		AmountZMW:     decimal.NewFromInt(100),
		SenderPhone:   recipientPhone,
		RecipientInfo: dto.PartyInfo{LightningInvoice: invoice},
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.liqRepo.AssertNotCalled(suite.T(), "Reserve", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeServiceTestSuite) TestCreateFiatToAsset_AcceptsMatchingOrAmountlessInvoice() {
	for _, amountSats := range []int64{6666, 0} {
		invoice := bolt11test.NewInvoiceAt(suite.T(), amountSats, suite.now, time.Hour)
		suite.liqRepo.On("Reserve", suite.ctx, domain.CurrencyBTC, "0.00006666").Return(nil).Once()
		suite.fiatRail.On("InitiateCollection", mock.Anything, "105", mock.Anything, mock.Anything).
			Return(&rails.Collection{ExternalID: "col-1"}, nil).Once()
		suite.txRepo.On("SaveTransaction", suite.ctx, mock.Anything).Return(nil).Once()

		tx, err := suite.service.CreateFiatToAsset(suite.ctx, dto.CreateFiatToAssetRequest{
			AmountZMW:     decimal.NewFromInt(100),
			SenderPhone:   recipientPhone,
			RecipientInfo: dto.PartyInfo{LightningInvoice: invoice},
		})

		suite.Require().NoError(err, "invoice for %d sats", amountSats)
		suite.Equal(domain.LightningInvoiceParty{Invoice: invoice}, tx.Recipient)
	}
}

// --- Webhooks ---

func (suite *ExchangeServiceTestSuite) TestWebhook_AssetToFiatSettles() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "inv-1").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusProcessing)).Return(true, nil).Once()
	suite.fiatRail.On("InitiatePayout", mock.Anything, "100", tx.Recipient, "BTC-ZMW-"+tx.ID).
		Return(&rails.OutboundReceipt{ExternalID: "payout-1"}, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, mock.MatchedBy(func(u domain.StatusUpdate) bool {
		return u.To == domain.StatusCompleted && *u.OutboundRef == "payout-1" && u.CompletedAt != nil
	})).Return(true, nil).Once()
	suite.liqRepo.On("Consume", mock.Anything, domain.CurrencyZMW, "100").Return(nil).Once()
	suite.liqRepo.On("Add", mock.Anything, domain.CurrencyBTC, "0.00006999").Return(nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookSucceeded, ExternalReference: "inv-1",
		ConfirmedAmount: decimal.RequireFromString("0.00006999"),
	})

	suite.Equal(domain.WebhookApplied, result.Outcome)
	suite.Equal(domain.StatusCompleted, result.Status)
	suite.Equal(1, suite.txManager.calls)
	suite.Equal([]gateways.EventType{gateways.EventTransactionCompleted}, suite.events.types())
}

func (suite *ExchangeServiceTestSuite) TestWebhook_FiatToAssetSettlesViaAlternateReference() {
	tx := pendingFiatToAsset()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailFiat, "unknown").Return(nil, apperrors.ErrNotFound).Once()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailFiat, "ZMW-BTC-ref").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusProcessing)).Return(true, nil).Once()
	suite.assetRail.On("PayOutboundInstrument", mock.Anything, tx.Recipient, int64(6666)).
		Return(&rails.OutboundReceipt{ExternalID: "pay-hash"}, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusCompleted)).Return(true, nil).Once()
	suite.liqRepo.On("Consume", mock.Anything, domain.CurrencyBTC, "0.00006666").Return(nil).Once()
	suite.liqRepo.On("Add", mock.Anything, domain.CurrencyZMW, "105").Return(nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailFiat, EventType: domain.WebhookSucceeded,
		ExternalReference: "unknown", AlternateReference: "ZMW-BTC-ref",
	})

	suite.Equal(domain.WebhookApplied, result.Outcome)
	suite.Equal(domain.StatusCompleted, result.Status)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_DuplicateIsNoOp() {
	tx := pendingAssetToFiat()
	tx.Status = domain.StatusCompleted
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "inv-1").Return(tx, nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookSucceeded, ExternalReference: "inv-1",
	})

	suite.Equal(domain.WebhookNoOp, result.Outcome)
	suite.fiatRail.AssertNotCalled(suite.T(), "InitiatePayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_ConcurrentDeliveryLosesClaim() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "inv-1").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusProcessing)).Return(false, nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookSucceeded, ExternalReference: "inv-1",
	})

	suite.Equal(domain.WebhookNoOp, result.Outcome)
	suite.fiatRail.AssertNotCalled(suite.T(), "InitiatePayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_OutboundFailureQueuesRefund() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "inv-1").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusProcessing)).Return(true, nil).Once()
	suite.fiatRail.On("InitiatePayout", mock.Anything, "100", tx.Recipient, "BTC-ZMW-"+tx.ID).
		Return(nil, rails.NewError("lipila", "payout", 502, errors.New("gateway"))).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, mock.MatchedBy(func(u domain.StatusUpdate) bool {
		return u.To == domain.StatusFailed && *u.FailureLeg == domain.FailureLegOutbound
	})).Return(true, nil).Once()
	suite.liqRepo.On("Release", mock.Anything, domain.CurrencyZMW, "100").Return(false, nil).Once()
	suite.refundRepo.On("SaveRefund", mock.Anything, mock.MatchedBy(func(r domain.ManualRefund) bool {
		return r.TransactionID == tx.ID && r.Currency == domain.CurrencyBTC &&
			r.Amount.Equal(decimal.RequireFromString("0.00006999")) && r.Status == domain.RefundOpen
	})).Return(nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookSucceeded, ExternalReference: "inv-1",
	})

	suite.Equal(domain.WebhookApplied, result.Outcome)
	suite.Equal(domain.StatusFailed, result.Status)
	suite.Equal([]gateways.EventType{gateways.EventTransactionFailed, gateways.EventRefundRequested}, suite.events.types())
	suite.liqRepo.AssertNotCalled(suite.T(), "Consume", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_SettlementBookingFailureIsRejected() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "inv-1").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusProcessing)).Return(true, nil).Once()
	suite.fiatRail.On("InitiatePayout", mock.Anything, "100", tx.Recipient, mock.Anything).
		Return(&rails.OutboundReceipt{ExternalID: "payout-1"}, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, transitionTo(domain.StatusCompleted)).Return(true, nil).Once()
	suite.liqRepo.On("Consume", mock.Anything, domain.CurrencyZMW, "100").Return(apperrors.ErrDataIntegrity).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookSucceeded, ExternalReference: "inv-1",
	})

	suite.Equal(domain.WebhookRejected, result.Outcome)
	suite.Empty(suite.events.events)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_InboundFailureReleases() {
	tx := pendingFiatToAsset()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailFiat, "col-1").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, mock.MatchedBy(func(u domain.StatusUpdate) bool {
		return u.To == domain.StatusFailed && *u.FailureLeg == domain.FailureLegInbound
	})).Return(true, nil).Once()
	suite.liqRepo.On("Release", mock.Anything, domain.CurrencyBTC, "0.00006666").Return(false, nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailFiat, EventType: domain.WebhookFailed, ExternalReference: "col-1", Status: "declined",
	})

	suite.Equal(domain.WebhookApplied, result.Outcome)
	suite.Equal(domain.StatusFailed, result.Status)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_InboundReversalWhileProcessingFails() {
	tx := pendingFiatToAsset()
	tx.Status = domain.StatusProcessing
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailFiat, "col-1").Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", mock.Anything, tx.ID, mock.MatchedBy(func(u domain.StatusUpdate) bool {
		return u.To == domain.StatusFailed && len(u.From) == 2
	})).Return(true, nil).Once()
	suite.liqRepo.On("Release", mock.Anything, domain.CurrencyBTC, "0.00006666").Return(false, nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailFiat, EventType: domain.WebhookFailed, ExternalReference: "col-1",
	})

	suite.Equal(domain.WebhookApplied, result.Outcome)
	suite.Equal(domain.StatusFailed, result.Status)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_InboundFailureOnTerminalIsNoOp() {
	tx := pendingFiatToAsset()
	tx.Status = domain.StatusCompleted
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailFiat, "col-1").Return(tx, nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailFiat, EventType: domain.WebhookFailed, ExternalReference: "col-1",
	})

	suite.Equal(domain.WebhookNoOp, result.Outcome)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_UnknownReferenceIsNoOp() {
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "nope").Return(nil, apperrors.ErrNotFound).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookSucceeded, ExternalReference: "nope",
	})

	suite.Equal(domain.WebhookNoOp, result.Outcome)
	suite.Empty(result.TransactionID)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_Rejections() {
	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{Rail: domain.RailAsset, EventType: domain.WebhookSucceeded})
	suite.Equal(domain.WebhookRejected, result.Outcome)

	result = suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{Rail: "carrier", ExternalReference: "x"})
	suite.Equal(domain.WebhookRejected, result.Outcome)
}

func (suite *ExchangeServiceTestSuite) TestWebhook_IgnoredEventIsNoOp() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByInboundReference", mock.Anything, domain.RailAsset, "inv-1").Return(tx, nil).Once()

	result := suite.service.ProcessWebhook(suite.ctx, domain.WebhookEvent{
		Rail: domain.RailAsset, EventType: domain.WebhookIgnored, ExternalReference: "inv-1", Status: "invoice.created",
	})

	suite.Equal(domain.WebhookNoOp, result.Outcome)
	suite.Equal(tx.ID, result.TransactionID)
}

// --- Queries and operator actions ---

func (suite *ExchangeServiceTestSuite) TestPreviewFee() {
	calc, quote, err := suite.service.PreviewFee(suite.ctx, domain.DirectionFiatToAsset, decimal.NewFromInt(50000))

	suite.Require().NoError(err)
	suite.Equal("500", calc.FeeFiat.String())
	suite.Equal(domain.DirectionFiatToAsset.EstimatedDelivery(), calc.EstimatedDelivery)
	suite.False(quote.Stale)
}

func (suite *ExchangeServiceTestSuite) TestGetTransaction() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByID", suite.ctx, tx.ID).Return(tx, nil).Once()

	got, err := suite.service.GetTransaction(suite.ctx, tx.ID)
	suite.Require().NoError(err)
	suite.Equal(tx.ID, got.ID)

	_, err = suite.service.GetTransaction(suite.ctx, "not-a-uuid")
	suite.ErrorIs(err, apperrors.ErrValidation)

	missing := uuid.NewString()
	suite.txRepo.On("FindTransactionByID", suite.ctx, missing).Return(nil, apperrors.ErrNotFound).Once()
	_, err = suite.service.GetTransaction(suite.ctx, missing)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ExchangeServiceTestSuite) TestListTransactions_ClampsLimit() {
	tests := []struct {
		requested int
		want      int
	}{
		{requested: 1000, want: dto.MaxTransactionPageSize},
		{requested: 101, want: dto.MaxTransactionPageSize},
		{requested: 100, want: 100},
		{requested: 50, want: 50},
		{requested: 0, want: dto.DefaultTransactionPageSize},
		{requested: -3, want: dto.DefaultTransactionPageSize},
	}
	for _, tt := range tests {
		want := tt.want
		suite.txRepo.On("ListTransactions", suite.ctx, mock.MatchedBy(func(f domain.ListTransactionsFilter) bool {
			return f.Limit == want && f.Offset == 0
		})).Return([]domain.Transaction{}, 0, nil).Once()

		_, total, err := suite.service.ListTransactions(suite.ctx, domain.ListTransactionsFilter{Limit: tt.requested, Offset: -5})

		suite.NoError(err, "limit %d", tt.requested)
		suite.Equal(0, total)
	}
	suite.txRepo.AssertExpectations(suite.T())
}

func (suite *ExchangeServiceTestSuite) TestCancelTransaction() {
	tx := pendingAssetToFiat()
	suite.txRepo.On("FindTransactionByID", suite.ctx, tx.ID).Return(tx, nil).Once()
	suite.txRepo.On("UpdateTransactionStatus", suite.ctx, tx.ID, mock.MatchedBy(func(u domain.StatusUpdate) bool {
		return u.To == domain.StatusCancelled && *u.FailureLeg == domain.FailureLegOperator &&
			strings.Contains(*u.FailureReason, "op-1") && strings.Contains(*u.FailureReason, "customer request")
	})).Return(true, nil).Once()
	suite.liqRepo.On("Release", suite.ctx, domain.CurrencyZMW, "100").Return(false, nil).Once()

	got, err := suite.service.CancelTransaction(suite.ctx, tx.ID, "op-1", "customer request")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCancelled, got.Status)
	suite.Equal([]gateways.EventType{gateways.EventTransactionCancelled}, suite.events.types())
}

func (suite *ExchangeServiceTestSuite) TestCancelTransaction_OnlyFromPending() {
	tx := pendingAssetToFiat()
	tx.Status = domain.StatusProcessing
	suite.txRepo.On("FindTransactionByID", suite.ctx, tx.ID).Return(tx, nil).Once()

	_, err := suite.service.CancelTransaction(suite.ctx, tx.ID, "op-1", "")

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func TestExchangeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeServiceTestSuite))
}
