package main

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is one node in a tenant's chart of accounts.
type Account struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	TenantID  string      `json:"tenant_id" gorm:"column:tenant_id;not null;uniqueIndex:idx_accounts_tenant_code;index:idx_accounts_tenant"`
	Code      string      `json:"code" gorm:"column:code;not null;uniqueIndex:idx_accounts_tenant_code"`
	Name      string      `json:"name" gorm:"column:name;not null"`
	Type      AccountType `json:"type" gorm:"column:account_type;not null"`
	ParentID  *string     `json:"parent_id" gorm:"column:parent_id"`
	IsSystem  bool        `json:"is_system" gorm:"column:is_system;not null;default:false"`
	Active    bool        `json:"active" gorm:"column:active;not null;default:true"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountNode is one node of a resolved chart-of-accounts tree.
type AccountNode struct {
	Account  Account
	Children []*AccountNode
}

// AccountService owns the chart of accounts. No other code path writes
// account rows.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// CreateAccountParams carries a validated account creation request.
type CreateAccountParams struct {
	Code     string
	Name     string
	Type     AccountType
	ParentID *string
}

// CreateAccount adds one account to the tenant's chart.
func (s *AccountService) CreateAccount(tenantID string, params CreateAccountParams) (*Account, error) {
	if params.Code == "" || params.Name == "" {
		return nil, ValidationErrorf(CodeBadRequest, "account code and name are required")
	}
	if !params.Type.Valid() {
		return nil, ValidationErrorf(CodeBadRequest, "unknown account type: %s", params.Type)
	}

	account := &Account{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Code:     params.Code,
		Name:     params.Name,
		Type:     params.Type,
		ParentID: params.ParentID,
		Active:   true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Account{}).
			Where("tenant_id = ? AND code = ?", tenantID, params.Code).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ValidationErrorf(CodeDuplicateCode, "account code %s already exists", params.Code)
		}

		if params.ParentID != nil {
			var parent Account
			err := tx.Where("id = ? AND tenant_id = ?", *params.ParentID, tenantID).First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ValidationErrorf(CodeInvalidParent, "parent account %s does not exist", *params.ParentID)
			}
			if err != nil {
				return err
			}
			// A new account has no children yet, so linking it under any
			// existing parent cannot close a cycle. Walking the parent chain
			// still guards against inconsistent stored edges.
			if err := walkAncestors(tx, tenantID, parent, account.ID); err != nil {
				return err
			}
		}

		return tx.Create(account).Error
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// walkAncestors follows parent links from start upwards and fails if it meets
// forbiddenID or revisits a node.
func walkAncestors(tx *gorm.DB, tenantID string, start Account, forbiddenID string) error {
	seen := map[string]struct{}{start.ID: {}}
	current := start
	for current.ParentID != nil {
		next := *current.ParentID
		if next == forbiddenID {
			return ValidationErrorf(CodeInvalidParent, "parent %s would create a cycle", start.ID)
		}
		if _, ok := seen[next]; ok {
			return ValidationErrorf(CodeCycleDetected, "account hierarchy contains a cycle at %s", next)
		}
		seen[next] = struct{}{}

		var parent Account
		err := tx.Where("id = ? AND tenant_id = ?", next, tenantID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidationErrorf(CodeInvalidParent, "parent account %s does not exist", next)
		}
		if err != nil {
			return err
		}
		current = parent
	}
	return nil
}

// SetupDefaults seeds the standard school chart of accounts for a tenant that
// has none yet.
func (s *AccountService) SetupDefaults(tenantID string) ([]Account, error) {
	var created []Account

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Account{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ValidationErrorf(CodeAlreadyInitialized, "chart of accounts already initialized for tenant %s", tenantID)
		}

		created = defaultChart(tenantID)
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// defaultChart builds the seed accounts for a new tenant. Roots first so
// parent references always point at an earlier element.
func defaultChart(tenantID string) []Account {
	type seed struct {
		code       string
		name       string
		accType    AccountType
		parentCode string
	}
	seeds := []seed{
		{"1000", "Assets", AccountTypeAsset, ""},
		{"1010", "Cash", AccountTypeAsset, "1000"},
		{"1020", "Bank", AccountTypeAsset, "1000"},
		{"1100", "Accounts Receivable", AccountTypeAsset, "1000"},
		{"2000", "Liabilities", AccountTypeLiability, ""},
		{"2010", "Accounts Payable", AccountTypeLiability, "2000"},
		{"3000", "Equity", AccountTypeEquity, ""},
		{"3010", "Capital", AccountTypeEquity, "3000"},
		{"4000", "Income", AccountTypeIncome, ""},
		{"4010", "Tuition Fee Income", AccountTypeIncome, "4000"},
		{"4020", "Admission Fee Income", AccountTypeIncome, "4000"},
		{"5000", "Expenses", AccountTypeExpense, ""},
		{"5010", "Salaries Expense", AccountTypeExpense, "5000"},
		{"5020", "Utilities Expense", AccountTypeExpense, "5000"},
	}

	idByCode := make(map[string]string, len(seeds))
	accounts := make([]Account, 0, len(seeds))
	for _, sd := range seeds {
		id := uuid.NewString()
		idByCode[sd.code] = id

		var parentID *string
		if sd.parentCode != "" {
			pid := idByCode[sd.parentCode]
			parentID = &pid
		}
		accounts = append(accounts, Account{
			ID:       id,
			TenantID: tenantID,
			Code:     sd.code,
			Name:     sd.name,
			Type:     sd.accType,
			ParentID: parentID,
			IsSystem: true,
			Active:   true,
		})
	}
	return accounts
}

// ListAccounts returns the tenant's accounts ordered by code, optionally
// restricted to one type.
func (s *AccountService) ListAccounts(tenantID string, typeFilter *AccountType) ([]Account, error) {
	q := s.db.Where("tenant_id = ?", tenantID)
	if typeFilter != nil {
		if !typeFilter.Valid() {
			return nil, ValidationErrorf(CodeBadRequest, "unknown account type: %s", *typeFilter)
		}
		q = q.Where("account_type = ?", *typeFilter)
	}

	var accounts []Account
	if err := q.Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount returns one account by ID.
func (s *AccountService) GetAccount(tenantID, accountID string) (*Account, error) {
	var account Account
	err := s.db.Where("id = ? AND tenant_id = ?", accountID, tenantID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeactivateAccount logically retires an account. Rows are never deleted once
// posted against, so deactivation is the only removal the registry offers.
func (s *AccountService) DeactivateAccount(tenantID, accountID string) (*Account, error) {
	var account Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND tenant_id = ?", accountID, tenantID).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		if account.IsSystem {
			return ValidationErrorf(CodeBadRequest, "system account %s cannot be deactivated", account.Code)
		}

		account.Active = false
		return tx.Model(&account).Update("active", false).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ResolveHierarchy builds the parent/children tree over the tenant's chart.
// It re-checks acyclicity: CreateAccount enforces it on write, but reports
// roll balances up this tree and must not loop on inconsistent edges.
func (s *AccountService) ResolveHierarchy(tenantID string) ([]*AccountNode, error) {
	accounts, err := s.ListAccounts(tenantID, nil)
	if err != nil {
		return nil, err
	}
	return buildAccountTree(accounts)
}

func buildAccountTree(accounts []Account) ([]*AccountNode, error) {
	nodes := make(map[string]*AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &AccountNode{Account: a}
	}

	var roots []*AccountNode
	for _, a := range accounts {
		node := nodes[a.ID]
		if a.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*a.ParentID]
		if !ok {
			return nil, ValidationErrorf(CodeInvalidParent, "account %s references missing parent %s", a.Code, *a.ParentID)
		}
		parent.Children = append(parent.Children, node)
	}

	// Every node must be reachable from a root; anything left over sits on a
	// cycle detached from the tree.
	reached := 0
	stack := append([]*AccountNode{}, roots...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		stack = append(stack, node.Children...)
	}
	if reached != len(accounts) {
		return nil, ValidationErrorf(CodeCycleDetected, "account hierarchy contains a cycle")
	}

	return roots, nil
}
