package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	account, err := svc.CreateAccount("school-1", CreateAccountParams{
		Code: "1010", Name: "Cash", Type: AccountTypeAsset,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "school-1", account.TenantID)
	assert.True(t, account.Active)
	assert.False(t, account.IsSystem)

	child, err := svc.CreateAccount("school-1", CreateAccountParams{
		Code: "1011", Name: "Petty Cash", Type: AccountTypeAsset, ParentID: &account.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, account.ID, *child.ParentID)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	_, err := svc.CreateAccount("school-1", CreateAccountParams{Code: "1010", Name: "Cash", Type: AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.CreateAccount("school-1", CreateAccountParams{Code: "1010", Name: "Cash Again", Type: AccountTypeAsset})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeDuplicateCode, verr.Code)

	// Same code under a different tenant is fine.
	_, err = svc.CreateAccount("school-2", CreateAccountParams{Code: "1010", Name: "Cash", Type: AccountTypeAsset})
	assert.NoError(t, err)
}

func TestCreateAccountInvalidParent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	missing := "nope"
	_, err := svc.CreateAccount("school-1", CreateAccountParams{
		Code: "1010", Name: "Cash", Type: AccountTypeAsset, ParentID: &missing,
	})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidParent, verr.Code)

	// A parent owned by another tenant is just as invalid.
	other, err := svc.CreateAccount("school-2", CreateAccountParams{Code: "1000", Name: "Assets", Type: AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.CreateAccount("school-1", CreateAccountParams{
		Code: "1010", Name: "Cash", Type: AccountTypeAsset, ParentID: &other.ID,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidParent, verr.Code)
}

func TestSetupDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	created, err := svc.SetupDefaults("school-1")
	require.NoError(t, err)
	require.NotEmpty(t, created)
	for _, account := range created {
		assert.True(t, account.IsSystem, "seeded account %s should be system", account.Code)
		assert.True(t, account.Active)
	}

	byCode := make(map[string]Account, len(created))
	for _, account := range created {
		byCode[account.Code] = account
	}
	require.Contains(t, byCode, "1010") // Cash
	require.Contains(t, byCode, "4010") // Tuition Fee Income
	require.NotNil(t, byCode["1010"].ParentID)
	assert.Equal(t, byCode["1000"].ID, *byCode["1010"].ParentID)

	// Second run must fail and leave the count unchanged.
	_, err = svc.SetupDefaults("school-1")
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeAlreadyInitialized, verr.Code)

	var count int64
	require.NoError(t, db.Model(&Account{}).Where("tenant_id = ?", "school-1").Count(&count).Error)
	assert.Equal(t, int64(len(created)), count)
}

func TestListAccounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	seedAccount(t, db, "school-1", "4000", "Income", AccountTypeIncome)
	seedAccount(t, db, "school-1", "1010", "Cash", AccountTypeAsset)
	seedAccount(t, db, "school-1", "1020", "Bank", AccountTypeAsset)
	seedAccount(t, db, "school-2", "1010", "Cash", AccountTypeAsset)

	all, err := svc.ListAccounts("school-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"1010", "1020", "4000"}, []string{all[0].Code, all[1].Code, all[2].Code})

	asset := AccountTypeAsset
	assets, err := svc.ListAccounts("school-1", &asset)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func TestResolveHierarchy(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	root := seedAccount(t, db, "school-1", "1000", "Assets", AccountTypeAsset)
	cash := Account{ID: "cash", TenantID: "school-1", Code: "1010", Name: "Cash", Type: AccountTypeAsset, ParentID: &root.ID, Active: true}
	require.NoError(t, db.Create(&cash).Error)

	roots, err := svc.ResolveHierarchy("school-1")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "1010", roots[0].Children[0].Account.Code)
}

func TestResolveHierarchyCycleDetected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	// Corrupt the stored edges directly: a <-> b.
	a := Account{ID: "a", TenantID: "school-1", Code: "1000", Name: "A", Type: AccountTypeAsset, Active: true}
	require.NoError(t, db.Create(&a).Error)
	b := Account{ID: "b", TenantID: "school-1", Code: "1001", Name: "B", Type: AccountTypeAsset, ParentID: &a.ID, Active: true}
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Model(&Account{}).Where("id = ?", "a").Update("parent_id", "b").Error)

	_, err := svc.ResolveHierarchy("school-1")
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeCycleDetected, verr.Code)
}

func TestDeactivateAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	account := seedAccount(t, db, "school-1", "5050", "Misc Expense", AccountTypeExpense)

	deactivated, err := svc.DeactivateAccount("school-1", account.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)

	_, err = svc.DeactivateAccount("school-1", "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeactivateSystemAccountRefused(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db)

	created, err := svc.SetupDefaults("school-1")
	require.NoError(t, err)

	_, err = svc.DeactivateAccount("school-1", created[0].ID)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeBadRequest, verr.Code)
}
