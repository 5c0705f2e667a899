package core

import (
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID: "1", Month: 3, Year: 2025, Item: "electric co",
		Amount: -200, Type: Expense, Category: "utilities", PaymentMethod: PayCash,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(tx *Transaction)
		want error
	}{
		{"month zero", func(tx *Transaction) { tx.Month = 0 }, ErrInvalidMonth},
		{"month high", func(tx *Transaction) { tx.Month = 13 }, ErrInvalidMonth},
		{"year missing", func(tx *Transaction) { tx.Year = 0 }, ErrInvalidYear},
		{"blank item", func(tx *Transaction) { tx.Item = "   " }, ErrEmptyItem},
		{"bad type", func(tx *Transaction) { tx.Type = "loan" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrInvalidAmount},
		{"positive expense", func(tx *Transaction) { tx.Amount = 200 }, ErrSignMismatch},
		{"negative income", func(tx *Transaction) { tx.Type = Income; tx.Amount = -5 }, ErrSignMismatch},
		{"negative transfer", func(tx *Transaction) { tx.Type = Transfer; tx.Amount = -5 }, ErrSignMismatch},
		{"check without details", func(tx *Transaction) { tx.PaymentMethod = PayCheck }, ErrMissingCheckDetails},
		{"bad color", func(tx *Transaction) { tx.Color = "mauve" }, ErrInvalidColor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mut(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransactionValidateCheckPayment(t *testing.T) {
	tx := Transaction{
		ID: "1", Month: 3, Year: 2025, Item: "rent check",
		Amount: -1500, Type: Expense, Category: "rent",
		PaymentMethod: PayCheck, CheckDetails: &CheckDetails{CheckNumber: "1042", PayeeName: "landlord"},
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestCheckItemValidate(t *testing.T) {
	good := CheckItem{ID: "1", Item: "checks (March)", Amount: -300, Month: 3, Year: 2025, Color: CheckColor}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Amount = 300
	if err := bad.Validate(); !errors.Is(err, ErrSignMismatch) {
		t.Fatalf("expected sign mismatch, got %v", err)
	}
}

func TestNormalizeSign(t *testing.T) {
	cases := []struct {
		amount float64
		typ    TransactionType
		want   float64
	}{
		{200, Expense, -200},
		{-200, Expense, -200},
		{-350, Income, 350},
		{350, Income, 350},
		{-10, Transfer, 10},
	}
	for i, tc := range cases {
		if got := NormalizeSign(tc.amount, tc.typ); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}
