package explorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/docstore"
	"blinq/internal/services/finance"
	"blinq/internal/services/persistence"
)

func seed(t *testing.T) *models.User {
	t.Helper()

	store := persistence.New(docstore.NewMemory())
	Initialize(finance.New(store))

	user := &models.User{ID: "u1"}
	doc := models.DefaultFinancialDocument()
	doc.Accounts = []models.Account{{ID: "a1", Name: "Main"}}
	doc.Transactions = []models.Transaction{
		{ID: "t1", AccountID: "a1", Amount: 40, Description: "Coffee Beans", Date: "2026-01-03", Type: models.Debit, Category: "Food"},
		{ID: "t2", AccountID: "a1", Amount: 3000, Description: "Salary", Date: "2026-01-01", Type: models.Credit, Category: "Income"},
		{ID: "t3", AccountID: "a1", Amount: 120, Description: "Groceries", Date: "2026-01-05", Type: models.Debit, Category: "food"},
		{ID: "t4", AccountID: "a1", Amount: 15, Description: "Streaming", Date: "2026-02-01", Type: models.Debit},
	}
	if _, err := store.SaveFinancial(context.Background(), user.ID, doc, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return user
}

func search(t *testing.T, user *models.User, query string) Page {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/transactions/search?"+query, nil)
	req = req.WithContext(apphttp.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var page Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return page
}

func ids(txns []models.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.ID
	}
	return out
}

func TestSearchDefaultsToNewestFirst(t *testing.T) {
	user := seed(t)

	page := search(t, user, "")
	if got, want := ids(page.Transactions), []string{"t4", "t3", "t1", "t2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if page.TotalCount != 4 || page.TotalPages != 1 || page.Page != 1 {
		t.Errorf("unexpected paging: %+v", page)
	}
	if page.TotalIncome != 3000 || page.TotalExpenses != 175 || page.NetAmount != 2825 {
		t.Errorf("totals = %v/%v/%v", page.TotalIncome, page.TotalExpenses, page.NetAmount)
	}
	if !reflect.DeepEqual(page.Categories, []string{"Food", "Income", "food"}) {
		t.Errorf("categories = %v", page.Categories)
	}
}

func TestSearchFilters(t *testing.T) {
	user := seed(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"category is case-insensitive", "category=FOOD&sort=amount&order=asc", []string{"t1", "t3"}},
		{"search matches description", "search=coffee", []string{"t1"}},
		{"type", "type=credit", []string{"t2"}},
		{"date range", "start=2026-01-02&end=2026-01-31&sort=date&order=asc", []string{"t1", "t3"}},
		{"account all", "account=all&type=debit&sort=description&order=asc", []string{"t1", "t3", "t4"}},
		{"unknown account", "account=zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := search(t, user, tt.query)
			if got := ids(page.Transactions); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchPagination(t *testing.T) {
	user := seed(t)

	page := search(t, user, "perPage=3&page=2")
	if got := ids(page.Transactions); !reflect.DeepEqual(got, []string{"t2"}) {
		t.Errorf("page 2 = %v, want [t2]", got)
	}
	if page.TotalPages != 2 || !reflect.DeepEqual(page.PageRange, []int{1, 2}) {
		t.Errorf("paging = %+v", page)
	}

	// Past the end clamps to the last page
	page = search(t, user, "perPage=3&page=9")
	if page.Page != 2 {
		t.Errorf("page = %d, want 2", page.Page)
	}
}

func TestCalculatePageRange(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 0, []int{}},
		{1, 3, []int{1, 2, 3}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{5, 10, []int{3, 4, 5, 6, 7}},
		{10, 10, []int{6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		if got := calculatePageRange(tt.current, tt.total); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("calculatePageRange(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}
}
