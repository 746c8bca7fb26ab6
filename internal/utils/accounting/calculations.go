package accounting

import (
	"fmt"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount folds one line into a net account movement according to the
// account's normal balance: a line on the normal side increases the account,
// the opposite side decreases it.
func SignedAmount(line domain.JournalLine, normal domain.NormalBalance) (decimal.Decimal, error) {
	switch normal {
	case domain.DebitNormal:
		return line.Debit.Sub(line.Credit), nil
	case domain.CreditNormal:
		return line.Credit.Sub(line.Debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown normal balance %q for account %s", normal, line.AccountCode)
	}
}

// ValidateEntryBalance checks the double-entry invariant over a candidate
// entry's lines: every line carries exactly one nonzero side, amounts are
// positive, and total debits equal total credits.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: negative amount on account %s", apperrors.ErrValidation, l.AccountCode)
		}
		hasDebit := l.Debit.IsPositive()
		hasCredit := l.Credit.IsPositive()
		if hasDebit == hasCredit {
			return fmt.Errorf("%w: line on account %s must have exactly one of debit/credit set", apperrors.ErrValidation, l.AccountCode)
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum to %s, credits sum to %s",
			apperrors.ErrUnbalancedEntry, debits.String(), credits.String())
	}
	return nil
}
