package core

import (
	"errors"
	"strconv"
)

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrUnauthorizedCaller caller is not the settlement orchestrator
	ErrUnauthorizedCaller ErrorCode = 100002

	// ErrMarketNotFound no market
	ErrMarketNotFound ErrorCode = 100100
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrNoSupply liquid account holds none of the held market
	ErrNoSupply ErrorCode = 100102
	// ErrNoDebt liquid account owes none of the owed market
	ErrNoDebt ErrorCode = 100103
	// ErrInsufficientCollaterals insufficient collaterals
	ErrInsufficientCollaterals ErrorCode = 100104
	// ErrInvalidMarketPair input/output markets do not match
	ErrInvalidMarketPair ErrorCode = 100105
	// ErrInvalidPrice invalid price
	ErrInvalidPrice ErrorCode = 100108
	// ErrPriceNotFound no price for market
	ErrPriceNotFound ErrorCode = 100109
	// ErrStalePrice price validity window passed
	ErrStalePrice ErrorCode = 100110

	// ErrNotLiquidatable account is collateralized
	ErrNotLiquidatable ErrorCode = 100200
	// ErrNotExpired borrow position not yet expired
	ErrNotExpired ErrorCode = 100201
	// ErrExpiryMismatch expiry does not match the stored tag
	ErrExpiryMismatch ErrorCode = 100202
	// ErrLiquidatorNotWhitelisted liquidator not allowed for asset
	ErrLiquidatorNotWhitelisted ErrorCode = 100203
	// ErrInvalidPlan malformed liquidation plan
	ErrInvalidPlan ErrorCode = 100204
	// ErrInvalidTrader trader not allowed for the hop
	ErrInvalidTrader ErrorCode = 100205
	// ErrHopUnderDelivered hop output below minimum
	ErrHopUnderDelivered ErrorCode = 100206
	// ErrInsufficientOutput plan output does not cover debt
	ErrInsufficientOutput ErrorCode = 100207
	// ErrInvariantViolated post settlement reconciliation failed
	ErrInvariantViolated ErrorCode = 100208
	// ErrSelfLiquidation solid and liquid accounts are equal
	ErrSelfLiquidation ErrorCode = 100209

	// ErrAccountFrozen account has an outstanding async action
	ErrAccountFrozen ErrorCode = 100300
	// ErrReentrant reentrant freeze attempt
	ErrReentrant ErrorCode = 100301
	// ErrPartialLiquidation partial balance liquidation while frozen
	ErrPartialLiquidation ErrorCode = 100302
	// ErrMinOutputTooLarge embedded min output cannot be honored
	ErrMinOutputTooLarge ErrorCode = 100303
	// ErrTradesMustBeRetryable referenced async result is not retryable
	ErrTradesMustBeRetryable ErrorCode = 100304
	// ErrActionNotFound no async action for key
	ErrActionNotFound ErrorCode = 100305
	// ErrActionNotExecuted async action still pending
	ErrActionNotExecuted ErrorCode = 100306
	// ErrInvalidCallback callback does not match the action
	ErrInvalidCallback ErrorCode = 100307
	// ErrCancelUnsafe cancellation would leave the account undercollateralized
	ErrCancelUnsafe ErrorCode = 100308
	// ErrInvalidTradeData trade data cannot be decoded
	ErrInvalidTradeData ErrorCode = 100309
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:                  "unknown",
	ErrOperationForbidden:       "operation forbidden",
	ErrUnauthorizedCaller:       "caller is not authorized",
	ErrMarketNotFound:           "market not found",
	ErrInvalidAmount:            "invalid amount",
	ErrNoSupply:                 "held balance must be positive",
	ErrNoDebt:                   "owed balance must be negative",
	ErrInsufficientCollaterals:  "insufficient collaterals",
	ErrInvalidMarketPair:        "invalid market pair",
	ErrInvalidPrice:             "invalid price",
	ErrPriceNotFound:            "price not found",
	ErrStalePrice:               "stale price",
	ErrNotLiquidatable:          "account not liquidatable",
	ErrNotExpired:               "borrow not yet expired",
	ErrExpiryMismatch:           "expiry mismatch",
	ErrLiquidatorNotWhitelisted: "liquidator not whitelisted",
	ErrInvalidPlan:              "invalid liquidation plan",
	ErrInvalidTrader:            "invalid trader",
	ErrHopUnderDelivered:        "hop output below minimum",
	ErrInsufficientOutput:       "insufficient output amount",
	ErrInvariantViolated:        "settlement invariant violated",
	ErrSelfLiquidation:          "cannot liquidate self",
	ErrAccountFrozen:            "account is frozen",
	ErrReentrant:                "reentrant call",
	ErrPartialLiquidation:       "cannot liquidate partial balance",
	ErrMinOutputTooLarge:        "min output amount is too large",
	ErrTradesMustBeRetryable:    "all trades must be retryable",
	ErrActionNotFound:           "async action not found",
	ErrActionNotExecuted:        "async action not executed",
	ErrInvalidCallback:          "invalid callback",
	ErrCancelUnsafe:             "cancel would undercollateralize account",
	ErrInvalidTradeData:         "invalid trade data",
}

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}

	return e.String()
}

// AsErrorCode finds the first ErrorCode in err's chain
func AsErrorCode(err error, code *ErrorCode) bool {
	return errors.As(err, code)
}
