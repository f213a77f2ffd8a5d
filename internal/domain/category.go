package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCategory         = errors.New("unknown category")
	ErrUnknownTransactionType  = errors.New("unknown transaction type")
	ErrUnknownFilingType       = errors.New("unknown filing type")
	ErrUnknownAccountingMethod = errors.New("unknown accounting method")
)

// TransactionType separates income from expense records.
type TransactionType int

const (
	TransactionTypeIncome TransactionType = iota + 1
	TransactionTypeExpense
)

var transactionTypeNames = map[TransactionType][2]string{
	TransactionTypeIncome:  {"income", "収入"},
	TransactionTypeExpense: {"expense", "支出"},
}

func (t TransactionType) String() string {
	if n, ok := transactionTypeNames[t]; ok {
		return n[0]
	}
	return fmt.Sprintf("TransactionType(%d)", int(t))
}

// Label returns the Japanese label used on the return forms.
func (t TransactionType) Label() string { return transactionTypeNames[t][1] }

// ParseTransactionType accepts the canonical key or the Japanese label.
func ParseTransactionType(s string) (TransactionType, error) {
	for t, n := range transactionTypeNames {
		if matchName(s, n) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
}

func (t TransactionType) MarshalText() ([]byte, error) {
	if _, ok := transactionTypeNames[t]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTransactionType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	v, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// IncomeCategory is the closed vocabulary of income classifications.
type IncomeCategory int

const (
	IncomeSalary IncomeCategory = iota + 1
	IncomeBusiness
	IncomeRental
	IncomeDividend
	IncomeInterest
	IncomeCapitalGain
	IncomePension
	IncomeOther
)

var incomeCategoryNames = map[IncomeCategory][2]string{
	IncomeSalary:      {"salary", "給与所得"},
	IncomeBusiness:    {"business", "事業所得"},
	IncomeRental:      {"rental", "不動産所得"},
	IncomeDividend:    {"dividend", "配当所得"},
	IncomeInterest:    {"interest", "利子所得"},
	IncomeCapitalGain: {"capital_gain", "譲渡所得"},
	IncomePension:     {"pension", "雑所得(年金)"},
	IncomeOther:       {"other", "その他雑所得"},
}

// IncomeCategories lists every income category in declaration order.
func IncomeCategories() []IncomeCategory {
	return []IncomeCategory{
		IncomeSalary, IncomeBusiness, IncomeRental, IncomeDividend,
		IncomeInterest, IncomeCapitalGain, IncomePension, IncomeOther,
	}
}

func (c IncomeCategory) String() string {
	if n, ok := incomeCategoryNames[c]; ok {
		return n[0]
	}
	return fmt.Sprintf("IncomeCategory(%d)", int(c))
}

func (c IncomeCategory) Label() string { return incomeCategoryNames[c][1] }

func ParseIncomeCategory(s string) (IncomeCategory, error) {
	for _, c := range IncomeCategories() {
		if matchName(s, incomeCategoryNames[c]) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: income category %q", ErrUnknownCategory, s)
}

func (c IncomeCategory) MarshalText() ([]byte, error) {
	if _, ok := incomeCategoryNames[c]; !ok {
		return nil, fmt.Errorf("%w: income category %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *IncomeCategory) UnmarshalText(b []byte) error {
	v, err := ParseIncomeCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ExpenseCategory is the closed vocabulary of expense classifications.
type ExpenseCategory int

const (
	ExpenseOfficeRent ExpenseCategory = iota + 1
	ExpenseUtilities
	ExpenseCommunication
	ExpenseTravel
	ExpenseEntertainment
	ExpenseSupplies
	ExpenseAdvertising
	ExpenseInsurance
	ExpenseDepreciation
	ExpenseOutsourcing
	ExpenseTraining
	ExpenseMedical
	ExpenseDonation
	ExpenseOther
)

var expenseCategoryNames = map[ExpenseCategory][2]string{
	ExpenseOfficeRent:    {"office_rent", "事務所家賃"},
	ExpenseUtilities:     {"utilities", "水道光熱費"},
	ExpenseCommunication: {"communication", "通信費"},
	ExpenseTravel:        {"travel", "旅費交通費"},
	ExpenseEntertainment: {"entertainment", "接待交際費"},
	ExpenseSupplies:      {"supplies", "消耗品費"},
	ExpenseAdvertising:   {"advertising", "広告宣伝費"},
	ExpenseInsurance:     {"insurance", "保険料"},
	ExpenseDepreciation:  {"depreciation", "減価償却費"},
	ExpenseOutsourcing:   {"outsourcing", "外注費"},
	ExpenseTraining:      {"training", "研修費"},
	ExpenseMedical:       {"medical", "医療費"},
	ExpenseDonation:      {"donation", "寄付金"},
	ExpenseOther:         {"other", "その他経費"},
}

// ExpenseCategories lists every expense category in declaration order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		ExpenseOfficeRent, ExpenseUtilities, ExpenseCommunication, ExpenseTravel,
		ExpenseEntertainment, ExpenseSupplies, ExpenseAdvertising, ExpenseInsurance,
		ExpenseDepreciation, ExpenseOutsourcing, ExpenseTraining, ExpenseMedical,
		ExpenseDonation, ExpenseOther,
	}
}

func (c ExpenseCategory) String() string {
	if n, ok := expenseCategoryNames[c]; ok {
		return n[0]
	}
	return fmt.Sprintf("ExpenseCategory(%d)", int(c))
}

func (c ExpenseCategory) Label() string { return expenseCategoryNames[c][1] }

// IsPersonal reports whether the expense is a personal deduction rather than a business cost.
func (c ExpenseCategory) IsPersonal() bool {
	return c == ExpenseMedical || c == ExpenseDonation
}

func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	for _, c := range ExpenseCategories() {
		if matchName(s, expenseCategoryNames[c]) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: expense category %q", ErrUnknownCategory, s)
}

func (c ExpenseCategory) MarshalText() ([]byte, error) {
	if _, ok := expenseCategoryNames[c]; !ok {
		return nil, fmt.Errorf("%w: expense category %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *ExpenseCategory) UnmarshalText(b []byte) error {
	v, err := ParseExpenseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// FilingType is the return type elected for the year. Blue filing grants the
// flat blue-return special deduction.
type FilingType int

const (
	FilingBlue FilingType = iota + 1
	FilingWhite
)

var filingTypeNames = map[FilingType][2]string{
	FilingBlue:  {"blue", "青色申告"},
	FilingWhite: {"white", "白色申告"},
}

func (f FilingType) String() string {
	if n, ok := filingTypeNames[f]; ok {
		return n[0]
	}
	return fmt.Sprintf("FilingType(%d)", int(f))
}

func (f FilingType) Label() string { return filingTypeNames[f][1] }

func ParseFilingType(s string) (FilingType, error) {
	for f, n := range filingTypeNames {
		if matchName(s, n) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilingType, s)
}

func (f FilingType) MarshalText() ([]byte, error) {
	if _, ok := filingTypeNames[f]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFilingType, int(f))
	}
	return []byte(f.String()), nil
}

func (f *FilingType) UnmarshalText(b []byte) error {
	v, err := ParseFilingType(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// AccountingMethod is informational only; it does not affect the computation.
type AccountingMethod int

const (
	AccountingCash AccountingMethod = iota + 1
	AccountingAccrual
)

var accountingMethodNames = map[AccountingMethod][2]string{
	AccountingCash:    {"cash", "現金主義"},
	AccountingAccrual: {"accrual", "発生主義"},
}

func (a AccountingMethod) String() string {
	if n, ok := accountingMethodNames[a]; ok {
		return n[0]
	}
	return fmt.Sprintf("AccountingMethod(%d)", int(a))
}

func ParseAccountingMethod(s string) (AccountingMethod, error) {
	for a, n := range accountingMethodNames {
		if matchName(s, n) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAccountingMethod, s)
}

func (a AccountingMethod) MarshalText() ([]byte, error) {
	if _, ok := accountingMethodNames[a]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAccountingMethod, int(a))
	}
	return []byte(a.String()), nil
}

func (a *AccountingMethod) UnmarshalText(b []byte) error {
	v, err := ParseAccountingMethod(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// matchName compares against the canonical key case-insensitively and the label exactly.
func matchName(s string, names [2]string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, names[0]) || s == names[1]
}
