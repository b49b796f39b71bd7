package rpc

import (
	"errors"
	"net/http"

	"nftstaking/core"
	"nftstaking/core/auth"
	"nftstaking/core/state"
	"nftstaking/native/bank"
	nativecommon "nftstaking/native/common"
	"nftstaking/native/nftstaking"
)

var (
	errBadRequest     = errors.New("bad request")
	errSignerMismatch = errors.New("signature does not match signer")
	errNoIndexer      = errors.New("history indexer disabled")
)

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidSignature), errors.Is(err, errSignerMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, nftstaking.ErrUnauthorized),
		errors.Is(err, nftstaking.ErrNotPositionOwner),
		errors.Is(err, bank.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, nftstaking.ErrConfigNotFound),
		errors.Is(err, nftstaking.ErrPositionNotFound),
		errors.Is(err, nftstaking.ErrCollectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStateConflict),
		errors.Is(err, state.ErrNonceMismatch),
		errors.Is(err, nftstaking.ErrConfigExists),
		errors.Is(err, nftstaking.ErrPositionExists):
		return http.StatusConflict
	case errors.Is(err, nftstaking.ErrInsufficientFunds),
		errors.Is(err, bank.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, nativecommon.ErrModulePaused), errors.Is(err, errNoIndexer):
		return http.StatusServiceUnavailable
	case nftstaking.IsPolicyError(err), nftstaking.IsArithmeticError(err),
		errors.Is(err, nftstaking.ErrCollectionMismatch),
		errors.Is(err, nftstaking.ErrInvalidNFT),
		errors.Is(err, bank.ErrUnknownAsset),
		errors.Is(err, bank.ErrDecimalsMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
