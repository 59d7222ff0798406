package validators

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

type credentialsValidator struct {
	validate *validator.Validate
}

func NewCredentialsValidator() CredentialsValidator {
	return &credentialsValidator{validate: validator.New()}
}

// ValidateLogin requires a password and either an email or a username.
func (v *credentialsValidator) ValidateLogin(email, username, password string) error {
	if email == "" && username == "" {
		return errors.New("email or username is required")
	}
	if email != "" {
		if err := v.validate.Var(email, "email"); err != nil {
			return err
		}
	}
	return v.validate.Var(password, "required,max=128")
}
