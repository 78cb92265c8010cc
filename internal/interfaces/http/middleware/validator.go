package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/sync"
)

// SetupValidator registers custom validation tags with gin's binding engine.
// Call once before routes are served; registration is not concurrency safe.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("record_type", validRecordType)
	_ = v.RegisterValidation("resolution_strategy", validResolutionStrategy)
}

func validRecordType(fl validator.FieldLevel) bool {
	return record.Type(fl.Field().String()).IsValid()
}

func validResolutionStrategy(fl validator.FieldLevel) bool {
	return sync.ResolutionStrategy(fl.Field().String()).IsValid()
}
