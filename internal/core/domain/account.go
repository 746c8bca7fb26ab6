package domain

// NormalBalance indicates which side of an entry increases an account.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// AccountCategory is derived from the leading digit of an account code.
type AccountCategory string

const (
	CategoryAsset     AccountCategory = "ASSET"     // 1xxx
	CategoryLiability AccountCategory = "LIABILITY" // 2xxx
	CategoryEquity    AccountCategory = "EQUITY"    // 3xxx
	CategoryRevenue   AccountCategory = "REVENUE"   // 4xxx
	CategoryCOGS      AccountCategory = "COGS"      // 5xxx
	CategoryExpense   AccountCategory = "EXPENSE"   // 6xxx
	CategoryOther     AccountCategory = "OTHER"     // 7xxx / 8xxx
)

// Account is a row in the chart of accounts. Immutable reference data: the
// code encodes the category by its leading digit.
type Account struct {
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	NormalBalance NormalBalance `json:"normalBalance"`
	Description   string        `json:"description"`
	IsActive      bool          `json:"isActive"`
	AuditFields
}

// Category maps the account code's leading digit to its category. Codes that
// do not start with a known digit fall into CategoryOther.
func (a Account) Category() AccountCategory {
	return CategoryForCode(a.Code)
}

// CategoryForCode resolves the category for a bare account code.
func CategoryForCode(code string) AccountCategory {
	if code == "" {
		return CategoryOther
	}
	switch code[0] {
	case '1':
		return CategoryAsset
	case '2':
		return CategoryLiability
	case '3':
		return CategoryEquity
	case '4':
		return CategoryRevenue
	case '5':
		return CategoryCOGS
	case '6':
		return CategoryExpense
	default:
		return CategoryOther
	}
}
