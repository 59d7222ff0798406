package validators

import (
	"houseofstone-client/internal/models"
)

type PropertyValidator interface {
	ValidateSummary(property *models.Property) error
}

type CredentialsValidator interface {
	ValidateLogin(email, username, password string) error
}
