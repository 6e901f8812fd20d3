package dto

import (
	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request DTOs to
// gin's validator. Call once at startup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("zmphone", validateZambianPhone)
}

func validateZambianPhone(fl validator.FieldLevel) bool {
	return domain.IsValidMobileNumber(fl.Field().String())
}
