package ledger

import (
	"margin/core"
	"margin/pkg/margin"
	"margin/pkg/number"

	"github.com/shopspring/decimal"
)

func validDelta(account core.AccountID, delta decimal.Decimal) error {
	if err := margin.Require(!account.IsZero(), core.ErrOperationForbidden, "ledger/account-owner"); err != nil {
		return err
	}

	return margin.Require(number.IsInteger(delta), core.ErrInvalidAmount, "ledger/integer-wei")
}
