package validators

import (
	"fmt"

	"houseofstone-client/internal/models"

	"github.com/go-playground/validator/v10"
)

type propertyValidator struct {
	validate *validator.Validate
}

func NewPropertyValidator() PropertyValidator {
	return &propertyValidator{validate: validator.New()}
}

// ValidateSummary checks the fields a saved or viewed summary is built from.
func (v *propertyValidator) ValidateSummary(property *models.Property) error {
	if property == nil {
		return fmt.Errorf("property is required")
	}
	if err := v.validate.Struct(property); err != nil {
		return err
	}
	if property.Price.IsNegative() {
		return fmt.Errorf("property price must not be negative")
	}
	return nil
}
