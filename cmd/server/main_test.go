package main

import (
	"archive/zip"
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"blinq/internal/config"
	"blinq/internal/models"
	"blinq/internal/testutil"
)

// setupTestServer initializes dependencies over an in-memory store and returns a test server
func setupTestServer(t *testing.T) *testutil.TestServer {
	t.Helper()

	testutil.SetTestEnv(t)
	cfg := config.Load()

	// Fresh unencrypted storage per test
	store = nil
	if err := SetupDependencies(cfg); err != nil {
		t.Fatalf("Failed to setup dependencies: %v", err)
	}
	t.Cleanup(func() { persist.Close() })

	return testutil.NewTestServer(t, SetupRouter())
}

// signup registers a user and makes the test server send their session token
func signup(t *testing.T, ts *testutil.TestServer, email string) {
	t.Helper()

	var out struct {
		Token string `json:"token"`
	}
	resp := ts.POST("/api/auth/signup", map[string]string{
		"fullName": "Test User",
		"email":    email,
		"password": "password123",
	})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated).JSON(&out)
	if out.Token == "" {
		t.Fatal("signup returned no token")
	}
	ts.Token = out.Token
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

// TestHealthEndpoint tests the /api/health endpoint
func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/api/health")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeJSON().
		ContainsAll(`"status":"ok"`, `"version"`)
}

// TestProtectedRoutesRequireSession checks that data routes reject anonymous callers
func TestProtectedRoutesRequireSession(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/api/data", "/api/dashboard", "/api/accounts", "/api/budget", "/api/reports", "/api/settings"} {
		t.Run(path, func(t *testing.T) {
			testutil.AssertResponse(t, ts.GET(path)).Status(http.StatusUnauthorized)
		})
	}

	ts.Token = "not-a-real-token"
	testutil.AssertResponse(t, ts.GET("/api/data")).Status(http.StatusUnauthorized)
}

// TestAuthFlow walks signup, session, logout and login
func TestAuthFlow(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/api/auth/session")).
		StatusOK().
		Contains(`"isAuthenticated":false`)

	signup(t, ts, "asha@example.com")

	testutil.AssertResponse(t, ts.GET("/api/auth/session")).
		StatusOK().
		ContainsAll(`"isAuthenticated":true`, `"email":"asha@example.com"`)

	// Duplicate email
	resp := ts.POST("/api/auth/signup", map[string]string{
		"fullName": "Other", "email": "ASHA@example.com", "password": "password123",
	})
	testutil.AssertResponse(t, resp).Status(http.StatusConflict)

	// Short password
	resp = ts.POST("/api/auth/signup", map[string]string{
		"fullName": "Other", "email": "other@example.com", "password": "short",
	})
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)

	testutil.AssertResponse(t, ts.POST("/api/auth/logout", nil)).Status(http.StatusNoContent)
	testutil.AssertResponse(t, ts.GET("/api/data")).Status(http.StatusUnauthorized)

	resp = ts.POST("/api/auth/login", map[string]string{"email": "asha@example.com", "password": "wrong-password"})
	testutil.AssertResponse(t, resp).Status(http.StatusUnauthorized)

	resp = ts.POST("/api/auth/login", map[string]string{"email": "nobody@example.com", "password": "password123"})
	testutil.AssertResponse(t, resp).Status(http.StatusNotFound)

	var out struct {
		Token string `json:"token"`
	}
	resp = ts.POST("/api/auth/login", map[string]string{"email": "asha@example.com", "password": "password123"})
	testutil.AssertResponse(t, resp).StatusOK().Matches(`"token":"[0-9a-f]{64}"`).JSON(&out)
	ts.Token = out.Token
	testutil.AssertResponse(t, ts.GET("/api/data")).StatusOK()
}

// TestSessionCookie checks that browser clients can authenticate with the cookie alone
func TestSessionCookie(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "cookie@example.com")

	token := ts.Token
	ts.Token = ""
	resp := ts.Do(http.MethodGet, "/api/settings", nil, map[string]string{
		"Cookie": "blinq_session=" + token,
	})
	testutil.AssertResponse(t, resp).StatusOK().Contains(`"currency":"INR"`)
}

// TestDataRevisions exercises ETag / If-Match on the whole document
func TestDataRevisions(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "rev@example.com")

	resp := ts.GET("/api/data")
	first := testutil.AssertResponse(t, resp).StatusOK().Header("ETag")

	doc := models.DefaultFinancialDocument()
	doc.TotalBalance = 1500

	// Missing If-Match
	testutil.AssertResponse(t, ts.PUT("/api/data", doc)).Status(http.StatusPreconditionRequired)

	resp = ts.Do(http.MethodPut, "/api/data", doc, map[string]string{"If-Match": first})
	second := testutil.AssertResponse(t, resp).StatusOK().Contains(`"totalBalance":1500`).Header("ETag")
	if second == first {
		t.Errorf("revision should change after a write, still %s", second)
	}

	// Stale revision
	doc.TotalBalance = 9
	resp = ts.Do(http.MethodPut, "/api/data", doc, map[string]string{"If-Match": first})
	testutil.AssertResponse(t, resp).Status(http.StatusPreconditionFailed)

	testutil.AssertResponse(t, ts.GET("/api/data")).StatusOK().Contains(`"totalBalance":1500`)

	testutil.AssertResponse(t, ts.DELETE("/api/data")).StatusOK().Contains(`"totalBalance":0`)
}

// TestAccountsAndTransactions covers account CRUD and the transaction cascade
func TestAccountsAndTransactions(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "acct@example.com")

	var account models.Account
	resp := ts.POST("/api/accounts", map[string]any{
		"name": "Everyday", "accountNumber": "1234", "bank": "HDFC", "balance": "₹1,000",
	})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated).JSON(&account)
	if account.Balance != 1000 || account.Type != models.AccountChecking {
		t.Errorf("unexpected account: %+v", account)
	}

	// Missing required field
	resp = ts.POST("/api/accounts", map[string]any{"name": "No bank", "accountNumber": "1"})
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)

	resp = ts.POST("/api/transactions", map[string]any{
		"accountId": account.ID, "amount": 250, "description": "Groceries",
		"date": "2026-10-01", "type": "debit", "category": "Food",
	})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated)

	testutil.AssertResponse(t, ts.GET("/api/accounts")).
		StatusOK().
		ContainsAll(`"lastTransaction"`, `"Groceries"`, `"activeCount":1`)

	var txns []models.Transaction
	testutil.AssertResponse(t, ts.GET("/api/accounts/"+account.ID+"/transactions")).StatusOK().JSON(&txns)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}

	testutil.AssertResponse(t, ts.PUT("/api/accounts/missing", map[string]any{
		"name": "X", "accountNumber": "1", "bank": "Y",
	})).Status(http.StatusNotFound)

	testutil.AssertResponse(t, ts.DELETE("/api/accounts/"+account.ID)).Status(http.StatusNoContent)
	testutil.AssertResponse(t, ts.GET("/api/accounts/"+account.ID+"/transactions")).Status(http.StatusNotFound)
	testutil.AssertResponse(t, ts.GET("/api/transactions")).StatusOK().NotContains("Groceries")
}

// TestImportCSV uploads a bank export into an account
func TestImportCSV(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "import@example.com")

	var account models.Account
	resp := ts.POST("/api/accounts", map[string]any{"name": "Card", "accountNumber": "9", "bank": "SBI"})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated).JSON(&account)

	csv := []byte("Date,Description,Amount\n2026-10-01,Grocery Store,-50.00\n2026-10-02,Salary,3000.00\n2026-10-03,Internal Transfer,-100.00\n")

	body, contentType := multipartFile(t, "export.csv", csv)
	resp = ts.Do(http.MethodPost, "/api/accounts/"+account.ID+"/import", body, map[string]string{"Content-Type": contentType})
	testutil.AssertResponse(t, resp).StatusOK().ContainsAll(`"imported":2`, `"transfers":1`)

	// Same file again: everything is a duplicate
	body, contentType = multipartFile(t, "export.csv", csv)
	resp = ts.Do(http.MethodPost, "/api/accounts/"+account.ID+"/import", body, map[string]string{"Content-Type": contentType})
	testutil.AssertResponse(t, resp).StatusOK().ContainsAll(`"imported":0`, `"duplicates":2`)

	body, contentType = multipartFile(t, "export.txt", csv)
	resp = ts.Do(http.MethodPost, "/api/accounts/"+account.ID+"/import", body, map[string]string{"Content-Type": contentType})
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)
}

// TestBudgetStatus checks derived statuses in the budget payload
func TestBudgetStatus(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "budget@example.com")

	var category models.BudgetCategory
	resp := ts.POST("/api/budget/categories", map[string]any{
		"name": "Food", "budgetAmount": 100, "spentAmount": 95,
	})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated).Contains(`"status":"warning"`).JSON(&category)

	resp = ts.PUT("/api/budget/categories/"+category.ID, map[string]any{
		"name": "Food", "budgetAmount": 100, "spentAmount": 105,
	})
	testutil.AssertResponse(t, resp).StatusOK().Contains(`"status":"over-budget"`)

	resp = ts.POST("/api/budget/categories", map[string]any{"name": "No amount"})
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)

	resp = ts.POST("/api/budget/goals", map[string]any{"title": "Vacation", "targetAmount": "50000"})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated)

	testutil.AssertResponse(t, ts.GET("/api/budget")).
		StatusOK().
		ContainsAll(`"budgetCategories"`, `"Vacation"`, `"overview"`, `"totalBudget":100`)
}

// TestDashboardAndSettings checks the dashboard payload and currency display
func TestDashboardAndSettings(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "dash@example.com")

	resp := ts.PUT("/api/dashboard/metrics/totalBalance", map[string]any{"value": 12000000})
	testutil.AssertResponse(t, resp).StatusOK().Contains(`"totalBalance":12000000`)

	resp = ts.PUT("/api/dashboard/metrics/nope", map[string]any{"value": 1})
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)

	resp = ts.POST("/api/savings-goals", map[string]any{"name": "House", "targetAmount": 100, "currentAmount": 25})
	testutil.AssertResponse(t, resp).Status(http.StatusCreated).Contains(`"progress":25`)

	testutil.AssertResponse(t, ts.GET("/api/dashboard")).
		StatusOK().
		ContainsAll(`"totalBalance":"₹1.2Cr"`, `"House"`, `"currency":"INR"`)

	resp = ts.PUT("/api/settings", map[string]string{"currency": "usd"})
	testutil.AssertResponse(t, resp).StatusOK().ContainsAll(`"currency":"USD"`, `"symbol":"$"`)

	resp = ts.PUT("/api/settings", map[string]string{"currency": "XYZ"})
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)

	testutil.AssertResponse(t, ts.GET("/api/dashboard")).
		StatusOK().
		Contains(`"totalBalance":"$12.0M"`)
}

// TestReports checks the reports payload, export and comparison
func TestReports(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "reports@example.com")

	testutil.AssertResponse(t, ts.GETWithQuery("/api/reports", map[string]string{"period": "30d", "category": "all"})).
		StatusOK().
		ContainsAll(`"monthlyData"`, `"categoryData"`, `"weeklySpendingData"`, `"topMerchantsData"`, `"summary"`)

	resp := ts.GET("/api/reports/export")
	ra := testutil.AssertResponse(t, resp).StatusOK()
	if cd := ra.Header("Content-Disposition"); !bytes.Contains([]byte(cd), []byte("financial-report-")) {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	testutil.AssertResponse(t, ts.GETWithQuery("/api/reports/comparison", map[string]string{"type": "year"})).
		StatusOK().
		Contains(`"hasData":false`)

	testutil.AssertResponse(t, ts.GETWithQuery("/api/reports/comparison", map[string]string{"type": "decade"})).
		Status(http.StatusBadRequest)

	testutil.AssertResponse(t, ts.GET("/api/reports/recurring")).
		StatusOK().
		ContainsAll(`"payments":[]`, `"annualTotal":0`)

	testutil.AssertResponse(t, ts.GETWithQuery("/api/transactions/search", map[string]string{"search": "coffee"})).
		StatusOK().
		ContainsAll(`"transactions":[]`, `"totalCount":0`, `"perPage":25`)
}

// TestBackupRestore round-trips a user's documents through a zip archive
func TestBackupRestore(t *testing.T) {
	ts := setupTestServer(t)
	signup(t, ts, "backup@example.com")

	testutil.AssertResponse(t, ts.PUT("/api/dashboard/metrics/debt", map[string]any{"value": 4200})).StatusOK()
	testutil.AssertResponse(t, ts.PUT("/api/settings", map[string]string{"currency": "EUR"})).StatusOK()

	resp := ts.GET("/api/backup")
	ra := testutil.AssertResponse(t, resp).StatusOK().ContentType("application/zip")
	archive := []byte(ra.Body())

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("backup is not a zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Errorf("backup has %d entries, want 2", len(zr.File))
	}

	testutil.AssertResponse(t, ts.DELETE("/api/data")).StatusOK()
	testutil.AssertResponse(t, ts.PUT("/api/settings", map[string]string{"currency": "INR"})).StatusOK()

	body, contentType := multipartFile(t, "backup.zip", archive)
	resp = ts.Do(http.MethodPost, "/api/restore", body, map[string]string{"Content-Type": contentType})
	testutil.AssertResponse(t, resp).StatusOK().Contains(`"restored":2`)

	testutil.AssertResponse(t, ts.GET("/api/data")).StatusOK().Contains(`"debt":4200`)
	testutil.AssertResponse(t, ts.GET("/api/settings")).StatusOK().Contains(`"currency":"EUR"`)
}

// TestUsersAreIsolated checks that one user's data is invisible to another
func TestUsersAreIsolated(t *testing.T) {
	ts := setupTestServer(t)

	signup(t, ts, "first@example.com")
	testutil.AssertResponse(t, ts.POST("/api/accounts", map[string]any{
		"name": "Private", "accountNumber": "1", "bank": "B",
	})).Status(http.StatusCreated)

	signup(t, ts, "second@example.com")
	testutil.AssertResponse(t, ts.GET("/api/accounts")).StatusOK().NotContains("Private")
}
