package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// getValidator builds the request validator. Amount fields arrive as strings
// and are checked with the custom money rule before any decimal parsing
// reaches the core.
func getValidator() *validator.Validate {
	validate := validator.New()

	if err := validate.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return amountOK(d)
	}); err != nil {
		panic(fmt.Sprintf("failed to register money validation: %v", err))
	}
	return validate
}

// API wires the ledger core to its JSON/HTTP collaborators. It trusts the
// caller to have authenticated already; the tenant comes from a header.
type API struct {
	accounts *AccountService
	vouchers *VoucherService
	ledger   *LedgerService
	reports  *ReportService
	metrics  *Metrics
	validate *validator.Validate
	logger   Logger
}

func NewAPI(accounts *AccountService, vouchers *VoucherService, ledger *LedgerService, reports *ReportService, metrics *Metrics, logger Logger) *API {
	return &API{
		accounts: accounts,
		vouchers: vouchers,
		ledger:   ledger,
		reports:  reports,
		metrics:  metrics,
		validate: getValidator(),
		logger:   logger.NewSystem("api"),
	}
}

// Router builds the gin engine with all routes attached.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(a.countRequests())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(a.requireTenant())
	{
		v1.POST("/accounts", a.createAccount)
		v1.POST("/accounts/defaults", a.setupDefaults)
		v1.GET("/accounts", a.listAccounts)
		v1.GET("/accounts/:id", a.getAccount)
		v1.POST("/accounts/:id/deactivate", a.deactivateAccount)
		v1.GET("/accounts/:id/ledger", a.getLedger)

		v1.POST("/vouchers", a.postVoucher)
		v1.GET("/vouchers", a.listVouchers)
		v1.GET("/vouchers/:id", a.getVoucher)
		v1.POST("/vouchers/:id/void", a.voidVoucher)

		v1.GET("/reports/trial-balance", a.trialBalance)
		v1.GET("/reports/balance-sheet", a.balanceSheet)
	}

	return r
}

func (a *API) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if a.metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		a.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (a *API) requireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing X-Tenant-ID header"})
			return
		}
		c.Set("tenantID", tenantID)
		// Handlers and the core log through the request context, so every
		// line carries the tenant.
		ctx := SetContextLogger(c.Request.Context(), a.logger.With("tenantID", tenantID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString("tenantID")
}

// writeError maps core errors onto HTTP statuses. Integrity errors are logged
// loudly before they go out; they mean the books need an operator.
func (a *API) writeError(c *gin.Context, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "code": verr.Code})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	var cerr ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Error()})
		return
	}

	lg := LoggerFromContext(c.Request.Context())
	var ierr IntegrityError
	if errors.As(err, &ierr) {
		lg.Error("ledger integrity failure", "error", ierr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ierr.Error(), "code": "integrity_error"})
		return
	}

	lg.Error("request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (a *API) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error(), "code": CodeBadRequest})
		return false
	}
	if err := a.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeBadRequest})
		return false
	}
	return true
}

type createAccountRequest struct {
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Type     string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentID *string `json:"parent_id"`
}

func (a *API) createAccount(c *gin.Context) {
	var req createAccountRequest
	if !a.bind(c, &req) {
		return
	}

	account, err := a.accounts.CreateAccount(tenantID(c), CreateAccountParams{
		Code:     req.Code,
		Name:     req.Name,
		Type:     AccountType(req.Type),
		ParentID: req.ParentID,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	if a.metrics != nil {
		a.metrics.AccountsCreated.Inc()
	}
	c.JSON(http.StatusCreated, account)
}

func (a *API) setupDefaults(c *gin.Context) {
	accounts, err := a.accounts.SetupDefaults(tenantID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accounts": accounts})
}

func (a *API) listAccounts(c *gin.Context) {
	var typeFilter *AccountType
	if raw := c.Query("type"); raw != "" {
		t := AccountType(raw)
		typeFilter = &t
	}

	accounts, err := a.accounts.ListAccounts(tenantID(c), typeFilter)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (a *API) getAccount(c *gin.Context) {
	account, err := a.accounts.GetAccount(tenantID(c), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (a *API) deactivateAccount(c *gin.Context) {
	account, err := a.accounts.DeactivateAccount(tenantID(c), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type postVoucherRequest struct {
	Type        string            `json:"type" validate:"required,oneof=CPV CRV BPV BRV JV"`
	Date        string            `json:"date" validate:"required,datetime=2006-01-02"`
	Description string            `json:"description"`
	CreatedBy   string            `json:"created_by"`
	Lines       []postLineRequest `json:"lines" validate:"required,min=2,dive"`
}

type postLineRequest struct {
	AccountID   string `json:"account_id" validate:"required"`
	Debit       string `json:"debit" validate:"omitempty,money"`
	Credit      string `json:"credit" validate:"omitempty,money"`
	Description string `json:"description"`
}

func parseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, _ := decimal.NewFromString(raw)
	return d
}

func (a *API) postVoucher(c *gin.Context) {
	var req postVoucherRequest
	if !a.bind(c, &req) {
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "code": CodeBadRequest})
		return
	}

	lines := make([]PostLineParams, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, PostLineParams{
			AccountID:   line.AccountID,
			Debit:       parseAmount(line.Debit),
			Credit:      parseAmount(line.Credit),
			Description: line.Description,
		})
	}

	record, err := a.vouchers.PostVoucher(tenantID(c), PostVoucherParams{
		Type:        VoucherType(req.Type),
		Date:        date,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Lines:       lines,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"voucher": record.Voucher, "lines": record.Lines})
}

type voidVoucherRequest struct {
	Reason       string  `json:"reason" validate:"required"`
	RequestedBy  string  `json:"requested_by"`
	ReversalDate *string `json:"reversal_date" validate:"omitempty,datetime=2006-01-02"`
}

func (a *API) voidVoucher(c *gin.Context) {
	var req voidVoucherRequest
	if !a.bind(c, &req) {
		return
	}

	var reversalDate *time.Time
	if req.ReversalDate != nil {
		d, err := time.Parse(dateLayout, *req.ReversalDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reversal_date", "code": CodeBadRequest})
			return
		}
		reversalDate = &d
	}

	original, reversal, err := a.vouchers.VoidVoucher(tenantID(c), c.Param("id"), req.Reason, req.RequestedBy, reversalDate)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"voucher":  original.Voucher,
		"lines":    original.Lines,
		"reversal": reversal.Voucher,
	})
}

func (a *API) getVoucher(c *gin.Context) {
	record, err := a.vouchers.GetVoucher(tenantID(c), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voucher": record.Voucher, "lines": record.Lines})
}

func (a *API) listVouchers(c *gin.Context) {
	filters := VoucherFilters{}

	if raw := c.Query("start_date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date", "code": CodeBadRequest})
			return
		}
		filters.StartDate = &d
	}
	if raw := c.Query("end_date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date", "code": CodeBadRequest})
			return
		}
		filters.EndDate = &d
	}
	if raw := c.Query("type"); raw != "" {
		t := VoucherType(raw)
		filters.Type = &t
	}
	if offsetRaw, limitRaw := c.Query("offset"), c.Query("limit"); offsetRaw != "" || limitRaw != "" {
		options := &ListOptions{}
		if offset, err := strconv.ParseUint(offsetRaw, 10, 32); err == nil {
			options.Offset = uint32(offset)
		}
		if limit, err := strconv.ParseUint(limitRaw, 10, 32); err == nil {
			options.Limit = uint32(limit)
		}
		filters.Options = options
	}

	vouchers, err := a.vouchers.ListVouchers(tenantID(c), filters)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

func (a *API) getLedger(c *gin.Context) {
	start, err := time.Parse(dateLayout, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date is required as YYYY-MM-DD", "code": CodeBadRequest})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date is required as YYYY-MM-DD", "code": CodeBadRequest})
		return
	}

	statement, err := a.ledger.GetLedger(tenantID(c), c.Param("id"), start, end)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

func (a *API) trialBalance(c *gin.Context) {
	var asOf *time.Time
	if raw := c.Query("as_of"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of", "code": CodeBadRequest})
			return
		}
		asOf = &d
	}

	report, err := a.reports.TrialBalance(tenantID(c), asOf)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) balanceSheet(c *gin.Context) {
	asOf, err := time.Parse(dateLayout, c.Query("as_of"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "as_of is required as YYYY-MM-DD", "code": CodeBadRequest})
		return
	}

	report, err := a.reports.BalanceSheet(tenantID(c), asOf)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
