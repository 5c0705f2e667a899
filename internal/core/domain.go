package core

import (
	"errors"
	"strings"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	PayCash  PaymentMethod = "cash"
	PayCheck PaymentMethod = "check"
)

// Canonical category labels. "uncategorized" is the sentinel assigned when no
// mapping rule matches; the other two are forced by the classification
// special cases and must match the persisted documents of earlier versions.
const (
	CategoryUncategorized     = "uncategorized"
	CategoryBankDeposit       = "bank savings deposit"
	CategoryNationalInsurance = "national insurance"
)

// CheckColor is the fixed visual tag assigned to imported check placeholder rows.
const CheckColor = "purple"

// Colors is the fixed palette for ad-hoc visual grouping. The empty string
// means "no color" and is always accepted.
var Colors = []string{"yellow", "green", "blue", "pink", "purple", "orange", "red"}

type (
	TransactionType string

	PaymentMethod string

	// CheckDetails describes the paper check behind a transaction paid by check.
	CheckDetails struct {
		CheckNumber string `json:"checkNumber"`
		PayeeName   string `json:"payeeName"`
	}

	// Transaction is a single recorded financial event. Amounts are signed
	// decimals: negative for expenses, positive (or zero) for income and
	// transfers. JSON field names follow the persisted document format.
	Transaction struct {
		ID            string          `json:"id"`
		Month         int             `json:"month"`
		Year          int             `json:"year,omitempty"`
		Item          string          `json:"item"`
		Amount        float64         `json:"amount"`
		Type          TransactionType `json:"type"`
		Category      string          `json:"category"`
		Note          string          `json:"note,omitempty"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		CheckDetails  *CheckDetails   `json:"checkDetails,omitempty"`
		Color         string          `json:"color,omitempty"`
	}

	// CheckItem is a bulk-imported "(check)" placeholder row. Check items are
	// tracked separately and never enter category totals or balance math.
	CheckItem struct {
		ID          string  `json:"id"`
		Item        string  `json:"item"`
		Amount      float64 `json:"amount"`
		Month       int     `json:"month"`
		Year        int     `json:"year,omitempty"`
		Note        string  `json:"note,omitempty"`
		CheckNumber string  `json:"checkNumber,omitempty"`
		PayeeName   string  `json:"payeeName,omitempty"`
		Color       string  `json:"color,omitempty"`
	}

	// Mapping binds a normalized item name to its category and to the flag
	// controlling whether the item counts toward monthly expense totals.
	Mapping struct {
		Item                     string
		Category                 string
		IncludeInMonthlyExpenses bool
	}
)

var (
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyItem           = errors.New("empty item")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidPayment      = errors.New("invalid payment method")
	ErrSignMismatch        = errors.New("amount sign does not match transaction type")
	ErrMissingCheckDetails = errors.New("check details required for check payments")
	ErrInvalidColor        = errors.New("color not in palette")
)

// Valid reports whether t is one of the three known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	default:
		return false
	}
}

// Valid reports whether p is a known payment method. The empty value is
// accepted and treated as cash for documents written before the field existed.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PayCash, PayCheck, "":
		return true
	default:
		return false
	}
}

// ValidColor reports whether c is in the fixed palette. Empty means no color.
func ValidColor(c string) bool {
	if c == "" {
		return true
	}
	for _, p := range Colors {
		if p == c {
			return true
		}
	}
	return false
}

func (t Transaction) Validate() error {
	if t.Month < 1 || t.Month > 12 {
		return ErrInvalidMonth
	}
	if t.Year < 1 {
		return ErrInvalidYear
	}
	if len(strings.TrimSpace(t.Item)) == 0 {
		return ErrEmptyItem
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	// Sign invariant: negative iff expense.
	if t.Type == Expense && t.Amount > 0 {
		return ErrSignMismatch
	}
	if t.Type != Expense && t.Amount < 0 {
		return ErrSignMismatch
	}
	if t.PaymentMethod == PayCheck && t.CheckDetails == nil {
		return ErrMissingCheckDetails
	}
	if !ValidColor(t.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (c CheckItem) Validate() error {
	if c.Month < 1 || c.Month > 12 {
		return ErrInvalidMonth
	}
	if c.Year < 1 {
		return ErrInvalidYear
	}
	if len(strings.TrimSpace(c.Item)) == 0 {
		return ErrEmptyItem
	}
	// Check items always record money going out.
	if c.Amount > 0 {
		return ErrSignMismatch
	}
	if !ValidColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// NormalizeSign forces the amount sign to agree with the transaction type:
// expenses negative, everything else positive.
func NormalizeSign(amount float64, t TransactionType) float64 {
	if amount < 0 {
		amount = -amount
	}
	if t == Expense {
		return -amount
	}
	return amount
}
