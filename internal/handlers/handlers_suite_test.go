package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"time"

	portssvc "github.com/SscSPs/btc_momo_exchange/internal/core/ports/services"
	"github.com/SscSPs/btc_momo_exchange/internal/dto"
	"github.com/SscSPs/btc_momo_exchange/internal/handlers"
	"github.com/SscSPs/btc_momo_exchange/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret = "test-secret-key-that-is-long-enough"
	testIssuer    = "exchange-test"
	lipilaSecret  = "lipila-webhook-secret"
)

// HandlerTestSuite drives the full route table against mocked services.
type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	exchange  *MockExchangeService
	liquidity *MockLiquidityService
	rates     *MockRateService
	refunds   *MockRefundService
}

func (suite *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(dto.RegisterValidators())
}

func (suite *HandlerTestSuite) SetupTest() {
	suite.exchange = new(MockExchangeService)
	suite.liquidity = new(MockLiquidityService)
	suite.rates = new(MockRateService)
	suite.refunds = new(MockRefundService)

	cfg := &config.Config{
		IsProduction:        true,
		JWTSecret:           testJWTSecret,
		JWTIssuer:           testIssuer,
		WebhookSecretLipila: lipilaSecret,
	}
	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Rate:      suite.rates,
		Liquidity: suite.liquidity,
		Exchange:  suite.exchange,
		Refund:    suite.refunds,
	}, handlers.RouteDeps{})
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.exchange.AssertExpectations(suite.T())
	suite.liquidity.AssertExpectations(suite.T())
	suite.rates.AssertExpectations(suite.T())
	suite.refunds.AssertExpectations(suite.T())
}

// generateTestToken creates an operator JWT for testing.
func (suite *HandlerTestSuite) generateTestToken(operatorID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   operatorID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		suite.Require().NoError(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (suite *HandlerTestSuite) asOperator(id string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + suite.generateTestToken(id)}
}
