package handlers

import (
	"net/http"
	"strconv"

	apperrors "houseofstone-client/internal/errors"

	"github.com/go-playground/validator/v10"
)

// badRequest keeps validator errors intact so the error handler can phrase
// them; anything else becomes a generic invalid-parameters error.
func badRequest(err error) error {
	if _, ok := err.(validator.ValidationErrors); ok {
		return err
	}
	return apperrors.NewAppError(err.Error(), apperrors.MsgInvalidParameters, apperrors.ErrCodeInvalidParameters, http.StatusBadRequest, err)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewAppError("invalid id: "+raw, apperrors.MsgInvalidParameters, apperrors.ErrCodeInvalidParameters, http.StatusBadRequest, err)
	}
	return id, nil
}
