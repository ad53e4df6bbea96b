package match

import (
	"errors"
	"strings"

	"recipe-matcher/internal/pkg/common"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validator 共用的結構驗證器，handler 也使用同一個實例
func Validator() *validator.Validate {
	return validate
}

// ValidateRequest 驗證比對請求
func ValidateRequest(req *Request) error {
	if req == nil {
		return common.NewValidationError("Request body must be an object")
	}
	if req.Ingredient == nil || strings.TrimSpace(req.Ingredient.Name) == "" {
		return common.NewValidationError("Ingredient name is required")
	}
	if err := validate.Struct(req.Ingredient); err != nil {
		return common.NewValidationError("Ingredient name is required")
	}
	if len(req.Products) == 0 {
		return common.NewValidationError("Products array is required and must not be empty")
	}
	for i := range req.Products {
		if err := validate.Struct(&req.Products[i]); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				return common.NewValidationError(`Each product must include "id" and "name" fields`)
			}
			return common.NewValidationError(err.Error())
		}
	}
	return nil
}
