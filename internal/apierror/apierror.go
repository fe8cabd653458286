package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	// ErrProviderMissing: no signer/RPC provider is available for the
	// requested operation.
	ErrProviderMissing ErrorCode = "PROVIDER_MISSING"
	// ErrVerificationRejected: the World ID proof was invalid or the
	// verification endpoint failed.
	ErrVerificationRejected ErrorCode = "VERIFICATION_REJECTED"
	// ErrContractReadFailed: the accounts() call reverted or returned a
	// malformed tuple.
	ErrContractReadFailed ErrorCode = "CONTRACT_READ_FAILED"
	// ErrValidationFailed: non-numeric, non-positive, or over-limit amount.
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrTransactionFailed: submission or confirmation failure, including the
	// allowance-granted-but-repay-failed partial state.
	ErrTransactionFailed ErrorCode = "TRANSACTION_FAILED"
	// ErrNetworkMismatch: the wallet sits on a chain the service does not
	// support.
	ErrNetworkMismatch ErrorCode = "NETWORK_MISMATCH"
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrConflict        ErrorCode = "CONFLICT"
	ErrInternalServer  ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrValidationFailed, ErrVerificationRejected, ErrNetworkMismatch:
			return http.StatusBadRequest
		case ErrProviderMissing, ErrContractReadFailed, ErrTransactionFailed:
			return http.StatusBadGateway
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
