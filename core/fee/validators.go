package fee

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schooldesk/core"
)

var (
	paymentStatusTag  = "payment_status"
	paymentStatusText = "status must be one of pending, completed or failed"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(paymentStatusTag, func(fl validator.FieldLevel) bool {
		return PaymentStatus(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, paymentStatusTag, paymentStatusText)
}
