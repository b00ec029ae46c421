package main

import "github.com/shopspring/decimal"

// The mnemonic DEADCLIC is used to help remember the effect of debit or credit transactions on the relevant accounts.
// DEAD: Debit to increase Expense, Asset and Drawing accounts and CLIC: Credit to increase Liability, Income and Capital accounts.
//
//                Debit	Credit
// Asset	    Increase	Decrease
// Liability	Decrease	Increase
// Equity	    Decrease	Increase
// Income	    Decrease	Increase
// Expense	    Increase	Decrease

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

var accountTypes = map[AccountType]struct{}{
	AccountTypeAsset:     {},
	AccountTypeLiability: {},
	AccountTypeEquity:    {},
	AccountTypeIncome:    {},
	AccountTypeExpense:   {},
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	_, ok := accountTypes[t]
	return ok
}

// BalanceSide is the side on which an account type conventionally carries a
// positive balance.
type BalanceSide string

const (
	SideDebit  BalanceSide = "debit"
	SideCredit BalanceSide = "credit"
)

// NormalSide returns the normal balance side for the account type.
func (t AccountType) NormalSide() BalanceSide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// signedAmount folds one debit/credit pair into a single amount, positive when
// it sits on the account type's normal side. Every balance shown anywhere in
// the system goes through this rule so ledgers and reports always agree.
func (t AccountType) signedAmount(debit, credit decimal.Decimal) decimal.Decimal {
	if t.NormalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
