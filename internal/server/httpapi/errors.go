package httpapi

import (
	"errors"
	"net/http"

	"github.com/devlogging/backend/internal/common"
)

// ErrorResponse is the stable error body shared by every endpoint. No
// internal error type crosses the HTTP boundary in any other shape.
type ErrorResponse struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	StatusCode int    `json:"status_code"`
}

var (
	duplicatedUsernameError = ErrorResponse{
		Name:       "ValidationError",
		Message:    "O usuário informado já existe.",
		Action:     "Utilize outro usuário para realizar a operação.",
		StatusCode: http.StatusBadRequest,
	}

	duplicatedEmailError = ErrorResponse{
		Name:       "ValidationError",
		Message:    "O email informado já está sendo utilizado.",
		Action:     "Utilize outro email para realizar a operação.",
		StatusCode: http.StatusBadRequest,
	}

	usernameNotFoundError = ErrorResponse{
		Name:       "NotFoundError",
		Message:    "O username informado não foi encontrado no sistema.",
		Action:     "Verifique se o username foi digitado corretamente",
		StatusCode: http.StatusNotFound,
	}

	methodNotAllowedError = ErrorResponse{
		Name:       "MethodNotAllowedError",
		Message:    "Método não permitido para esse endpoint",
		Action:     "Verifique se o método HTTP é válido para este endpoint",
		StatusCode: http.StatusMethodNotAllowed,
	}

	malformedBodyError = ErrorResponse{
		Name:       "ValidationError",
		Message:    "Não foi possível interpretar o corpo da requisição.",
		Action:     "Verifique se o JSON enviado é válido.",
		StatusCode: http.StatusBadRequest,
	}

	internalServerError = ErrorResponse{
		Name:       "InternalServerError",
		Message:    "Um erro interno não esperado aconteceu.",
		Action:     "Entre em contato com o suporte.",
		StatusCode: http.StatusInternalServerError,
	}
)

// errorResponseFor translates a domain error into its public body. Anything
// unrecognized is reported as the generic internal error.
func errorResponseFor(err error) ErrorResponse {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		return ErrorResponse{
			Name:       "ValidationError",
			Message:    verr.Message,
			Action:     verr.Action,
			StatusCode: http.StatusBadRequest,
		}
	case errors.Is(err, common.ErrorUsernameTaken):
		return duplicatedUsernameError
	case errors.Is(err, common.ErrorEmailTaken):
		return duplicatedEmailError
	case errors.Is(err, common.ErrorNotFound):
		return usernameNotFoundError
	default:
		return internalServerError
	}
}
