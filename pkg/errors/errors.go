package errors

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrBadRequest           = errors.New("bad request")
	ErrInternalServer       = errors.New("internal server error")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotAMember           = errors.New("not a member of this conversation")
	ErrEmptyMessage         = errors.New("message must have content or attachments")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrGroupTooSmall        = errors.New("group needs at least two members")
)

type APIError struct {
	Message string `json:"error"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, code int) *APIError {
	return &APIError{
		Message: message,
		Code:    code,
	}
}

func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrGroupTooSmall):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
