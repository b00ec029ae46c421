package main

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService answers per-account history questions: what was posted
// against an account in a date range, and what the running balance was at
// each point. It only reads; the voucher store is the only writer.
type LedgerService struct {
	db       *gorm.DB
	accounts *AccountService
}

func NewLedgerService(db *gorm.DB, accounts *AccountService) *LedgerService {
	return &LedgerService{db: db, accounts: accounts}
}

// LedgerEntry is one ledger row with the running balance after it.
type LedgerEntry struct {
	Date        time.Time       `json:"date"`
	VoucherID   string          `json:"voucher_id"`
	VoucherNo   string          `json:"voucher_no"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// LedgerStatement is the result of GetLedger.
type LedgerStatement struct {
	AccountID      string          `json:"account_id"`
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Entries        []LedgerEntry   `json:"entries"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// OpeningBalance sums all posted lines against the account dated strictly
// before asOf, signed per the account type's normal side.
func (s *LedgerService) OpeningBalance(tenantID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.accounts.GetAccount(tenantID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	debit, credit, err := sumAccountLines(s.db, tenantID, accountID, dateOnly(asOf), false)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Type.signedAmount(debit, credit), nil
}

// sumAccountLines totals posted debits and credits against one account up to
// a boundary date; inclusive selects <= boundary, otherwise strictly before.
func sumAccountLines(db *gorm.DB, tenantID, accountID string, boundary time.Time, inclusive bool) (decimal.Decimal, decimal.Decimal, error) {
	cmp := "<"
	if inclusive {
		cmp = "<="
	}
	q := db.Model(&VoucherLine{}).
		Joins("JOIN vouchers ON vouchers.id = voucher_lines.voucher_id").
		Where("voucher_lines.tenant_id = ? AND voucher_lines.account_id = ?", tenantID, accountID).
		Where("vouchers.status = ?", VoucherStatusPosted).
		Where("vouchers.voucher_date "+cmp+" ?", boundary)

	switch db.Dialector.Name() {
	case "postgres":
		var result struct {
			Debit  decimal.Decimal
			Credit decimal.Decimal
		}
		err := q.Select("COALESCE(SUM(voucher_lines.debit), 0) AS debit, COALESCE(SUM(voucher_lines.credit), 0) AS credit").
			Scan(&result).Error
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return result.Debit, result.Credit, nil

	default:
		// Fetch the rows and sum in Go to avoid SQLite's floating-point
		// conversion on aggregates.
		var lines []VoucherLine
		if err := q.Select("voucher_lines.*").Find(&lines).Error; err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		debit, credit := decimal.Zero, decimal.Zero
		for _, line := range lines {
			debit = debit.Add(line.Debit)
			credit = credit.Add(line.Credit)
		}
		return debit, credit, nil
	}
}

type ledgerRow struct {
	VoucherID          string          `gorm:"column:voucher_id"`
	VoucherNo          string          `gorm:"column:voucher_no"`
	VoucherDate        time.Time       `gorm:"column:voucher_date"`
	VoucherDescription string          `gorm:"column:voucher_description"`
	LineDescription    string          `gorm:"column:line_description"`
	Debit              decimal.Decimal `gorm:"column:debit"`
	Credit             decimal.Decimal `gorm:"column:credit"`
}

// GetLedger returns the account's posted entries between start and end
// (inclusive) with running balances. Entries come back ordered by date, then
// voucher type and numeric sequence number, then line number, so the running
// balance is a pure function of the stored rows.
func (s *LedgerService) GetLedger(tenantID, accountID string, start, end time.Time) (*LedgerStatement, error) {
	account, err := s.accounts.GetAccount(tenantID, accountID)
	if err != nil {
		return nil, err
	}

	opening, err := s.OpeningBalance(tenantID, accountID, start)
	if err != nil {
		return nil, err
	}

	var rows []ledgerRow
	err = s.db.Model(&VoucherLine{}).
		Joins("JOIN vouchers ON vouchers.id = voucher_lines.voucher_id").
		Where("voucher_lines.tenant_id = ? AND voucher_lines.account_id = ?", tenantID, accountID).
		Where("vouchers.status = ?", VoucherStatusPosted).
		Where("vouchers.voucher_date >= ? AND vouchers.voucher_date <= ?", dateOnly(start), dateOnly(end)).
		Select("vouchers.id AS voucher_id, vouchers.voucher_no, vouchers.voucher_date, vouchers.description AS voucher_description, voucher_lines.description AS line_description, voucher_lines.debit, voucher_lines.credit").
		Order("vouchers.voucher_date ASC").
		Order("vouchers.voucher_type ASC").
		Order("vouchers.seq_no ASC").
		Order("voucher_lines.line_no ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	statement := &LedgerStatement{
		AccountID:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		OpeningBalance: opening,
		Entries:        make([]LedgerEntry, 0, len(rows)),
		ClosingBalance: opening,
	}

	balance := opening
	for _, row := range rows {
		balance = balance.Add(account.Type.signedAmount(row.Debit, row.Credit))
		description := row.LineDescription
		if description == "" {
			description = row.VoucherDescription
		}
		statement.Entries = append(statement.Entries, LedgerEntry{
			Date:        row.VoucherDate,
			VoucherID:   row.VoucherID,
			VoucherNo:   row.VoucherNo,
			Description: description,
			Debit:       row.Debit,
			Credit:      row.Credit,
			Balance:     balance,
		})
	}
	statement.ClosingBalance = balance

	return statement, nil
}
