package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"
)

// ExportOptions contains options for exporting vouchers
type ExportOptions struct {
	TenantID  string
	Type      *VoucherType
	StartDate *time.Time
	EndDate   *time.Time
	OutputDir string
}

// VoucherExporter handles exporting vouchers to CSV
type VoucherExporter struct {
	db *gorm.DB
}

// NewVoucherExporter creates a new voucher exporter
func NewVoucherExporter(db *gorm.DB) *VoucherExporter {
	return &VoucherExporter{db: db}
}

type exportRow struct {
	VoucherNo   string    `gorm:"column:voucher_no"`
	VoucherType string    `gorm:"column:voucher_type"`
	VoucherDate time.Time `gorm:"column:voucher_date"`
	Status      string    `gorm:"column:status"`
	Description string    `gorm:"column:description"`
	LineNo      int       `gorm:"column:line_no"`
	AccountCode string    `gorm:"column:account_code"`
	AccountName string    `gorm:"column:account_name"`
	Debit       string    `gorm:"column:debit"`
	Credit      string    `gorm:"column:credit"`
}

// ExportToCSV exports one tenant's voucher lines to CSV format
func (e *VoucherExporter) ExportToCSV(writer io.Writer, options ExportOptions) error {
	q := e.db.Model(&VoucherLine{}).
		Joins("JOIN vouchers ON vouchers.id = voucher_lines.voucher_id").
		Joins("JOIN accounts ON accounts.id = voucher_lines.account_id").
		Where("voucher_lines.tenant_id = ?", options.TenantID)
	if options.Type != nil {
		q = q.Where("vouchers.voucher_type = ?", *options.Type)
	}
	if options.StartDate != nil {
		q = q.Where("vouchers.voucher_date >= ?", dateOnly(*options.StartDate))
	}
	if options.EndDate != nil {
		q = q.Where("vouchers.voucher_date <= ?", dateOnly(*options.EndDate))
	}

	var rows []exportRow
	err := q.Select("vouchers.voucher_no, vouchers.voucher_type, vouchers.voucher_date, vouchers.status, vouchers.description, voucher_lines.line_no, accounts.code AS account_code, accounts.name AS account_name, voucher_lines.debit, voucher_lines.credit").
		Order("vouchers.voucher_date ASC").
		Order("vouchers.voucher_type ASC").
		Order("vouchers.seq_no ASC").
		Order("voucher_lines.line_no ASC").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to get vouchers: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := []string{"VoucherNo", "Type", "Date", "Status", "Description", "LineNo", "AccountCode", "AccountName", "Debit", "Credit"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.VoucherNo,
			row.VoucherType,
			row.VoucherDate.Format(dateLayout),
			row.Status,
			row.Description,
			fmt.Sprintf("%d", row.LineNo),
			row.AccountCode,
			row.AccountName,
			row.Debit,
			row.Credit,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write row to CSV: %w", err)
		}
	}
	return nil
}

// ExportToFile exports vouchers to a CSV file
func (e *VoucherExporter) ExportToFile(options ExportOptions) (string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", options.OutputDir, err)
	}

	fileName := filepath.Join(options.OutputDir, fmt.Sprintf("vouchers_%s.csv", options.TenantID))
	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", fileName, err)
	}
	defer file.Close()

	if err := e.ExportToCSV(file, options); err != nil {
		return "", err
	}
	return fileName, nil
}

// runExportVouchersCli is the entry point for the export command line interface.
// Example: ledgerd export school-42 ./exports
func runExportVouchersCli(logger Logger) {
	logger = logger.NewSystem("export")
	if len(os.Args) < 3 {
		logger.Fatal("Usage: ledgerd export <tenant_id> [output_dir]")
	}
	tenantID := os.Args[2]

	outputDir := "."
	if len(os.Args) > 3 {
		outputDir = os.Args[3]
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		logger.Fatal("failed to setup database", "error", err)
	}

	exporter := NewVoucherExporter(db)
	fileName, err := exporter.ExportToFile(ExportOptions{TenantID: tenantID, OutputDir: outputDir})
	if err != nil {
		logger.Fatal("failed to export vouchers", "error", err)
	}

	logger.Info("exported vouchers", "tenantID", tenantID, "file", fileName)
}
