package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportToCSV(t *testing.T) {
	db := setupTestDB(t)
	vouchers := NewVoucherService(db, nil, ReversalDateOriginal)

	cash := seedAccount(t, db, "school-1", "1010", "Cash", AccountTypeAsset)
	tuition := seedAccount(t, db, "school-1", "4010", "Tuition Fee Income", AccountTypeIncome)
	postTestVoucher(t, vouchers, "school-1", VoucherTypeCRV, mustDate(t, "2024-01-05"), cash.ID, tuition.ID, "5000")

	// Another tenant's data must not leak into the export.
	otherCash := seedAccount(t, db, "school-2", "1010", "Cash", AccountTypeAsset)
	otherIncome := seedAccount(t, db, "school-2", "4010", "Tuition Fee Income", AccountTypeIncome)
	postTestVoucher(t, vouchers, "school-2", VoucherTypeCRV, mustDate(t, "2024-01-05"), otherCash.ID, otherIncome.ID, "77")

	var buf bytes.Buffer
	exporter := NewVoucherExporter(db)
	require.NoError(t, exporter.ExportToCSV(&buf, ExportOptions{TenantID: "school-1"}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two lines

	assert.Equal(t, "VoucherNo", rows[0][0])
	assert.Equal(t, "CRV-000001", rows[1][0])
	assert.Equal(t, "2024-01-05", rows[1][2])
	assert.Equal(t, "1010", rows[1][6])
	assert.Equal(t, "4010", rows[2][6])
}

func TestExportToCSVTypeFilter(t *testing.T) {
	db := setupTestDB(t)
	vouchers := NewVoucherService(db, nil, ReversalDateOriginal)

	cash := seedAccount(t, db, "school-1", "1010", "Cash", AccountTypeAsset)
	tuition := seedAccount(t, db, "school-1", "4010", "Tuition Fee Income", AccountTypeIncome)
	postTestVoucher(t, vouchers, "school-1", VoucherTypeCRV, mustDate(t, "2024-01-05"), cash.ID, tuition.ID, "100")
	postTestVoucher(t, vouchers, "school-1", VoucherTypeJV, mustDate(t, "2024-01-06"), cash.ID, tuition.ID, "200")

	jv := VoucherTypeJV
	var buf bytes.Buffer
	exporter := NewVoucherExporter(db)
	require.NoError(t, exporter.ExportToCSV(&buf, ExportOptions{TenantID: "school-1", Type: &jv}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "JV-000001", rows[1][0])
}
