package ledger

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
)

func tempService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	svc, err := NewService(filepath.Join(dir, "test.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestCreateSaleComputesTotal(t *testing.T) {
	svc := tempService(t)

	// B001 is seeded at price 600 with stock 50.
	sale, err := svc.CreateSale("2024-02-01", "M001", "B001", 2, 100)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.Total != 1100 {
		t.Fatalf("want total 1100, got %d", sale.Total)
	}

	book, _ := svc.GetBook("B001")
	if book.Stock != 48 {
		t.Fatalf("want stock 48 after sale, got %d", book.Stock)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	svc := tempService(t)

	salesBefore, _ := svc.ListSales()

	_, err := svc.CreateSale("2024-02-01", "M001", "B001", 51, 0)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.Stock != 50 {
		t.Fatalf("want current stock 50 in error, got %d", stockErr.Stock)
	}

	// No partial effects: no sale row, stock untouched.
	salesAfter, _ := svc.ListSales()
	if len(salesAfter) != len(salesBefore) {
		t.Fatalf("sale count changed: %d -> %d", len(salesBefore), len(salesAfter))
	}
	book, _ := svc.GetBook("B001")
	if book.Stock != 50 {
		t.Fatalf("stock changed on failed sale: %d", book.Stock)
	}
}

func TestCreateSaleRejectsUnknownReferences(t *testing.T) {
	svc := tempService(t)

	salesBefore, _ := svc.ListSales()

	if _, err := svc.CreateSale("2024-02-01", "M999", "B001", 1, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown member, got %v", err)
	}
	if _, err := svc.CreateSale("2024-02-01", "M001", "B999", 1, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown book, got %v", err)
	}

	salesAfter, _ := svc.ListSales()
	if len(salesAfter) != len(salesBefore) {
		t.Fatalf("sale count changed on rejected create")
	}
	book, _ := svc.GetBook("B001")
	if book.Stock != 50 {
		t.Fatalf("stock changed on rejected create: %d", book.Stock)
	}
}

func TestCreateSaleValidatesInput(t *testing.T) {
	svc := tempService(t)

	cases := []struct {
		name     string
		date     string
		quantity int64
		discount int64
	}{
		{"short date", "2024-1-15", 1, 0},
		{"no separators", "2024/01/15", 1, 0},
		{"one separator", "2024-0115x", 1, 0},
		{"zero quantity", "2024-01-15", 0, 0},
		{"negative quantity", "2024-01-15", -3, 0},
		{"negative discount", "2024-01-15", 1, -1},
	}
	for _, tc := range cases {
		_, err := svc.CreateSale(tc.date, "M001", "B001", tc.quantity, tc.discount)
		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("%s: want ValidationError, got %v", tc.name, err)
		}
	}

	// The date check is format-only, not calendar validity.
	if _, err := svc.CreateSale("9999-99-99", "M001", "B001", 1, 0); err != nil {
		t.Fatalf("format-valid date rejected: %v", err)
	}
}

func TestUpdateDiscountRecomputesFromCurrentPrice(t *testing.T) {
	svc := tempService(t)

	// Seed sale 3 is 3 copies of B003, currently priced 1200.
	newTotal, err := svc.UpdateDiscount(3, 200)
	if err != nil {
		t.Fatalf("update discount: %v", err)
	}
	if newTotal != 3400 {
		t.Fatalf("want total 3400, got %d", newTotal)
	}

	sale, _ := svc.GetSale(3)
	if sale.Discount != 200 || sale.Total != 3400 {
		t.Fatalf("persisted sale not updated: %+v", sale)
	}

	// Stock is untouched by a discount update.
	book, _ := svc.GetBook("B003")
	if book.Stock != 20 {
		t.Fatalf("stock changed by discount update: %d", book.Stock)
	}
}

func TestUpdateDiscountMissingSale(t *testing.T) {
	svc := tempService(t)
	if _, err := svc.UpdateDiscount(42, 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateDiscount(1, -5); err == nil {
		t.Fatalf("want validation error for negative discount")
	}
}

func TestDiscountMayExceedLineTotal(t *testing.T) {
	svc := tempService(t)

	// Seed sale 2 is 1 copy of B002 at 800; an 1000 discount goes negative.
	newTotal, err := svc.UpdateDiscount(2, 1000)
	if err != nil {
		t.Fatalf("update discount: %v", err)
	}
	if newTotal != -200 {
		t.Fatalf("want total -200, got %d", newTotal)
	}
}

func TestDeleteSaleRemovesExactlyOne(t *testing.T) {
	svc := tempService(t)

	before, _ := svc.ListSales()

	if err := svc.DeleteSale(2); err != nil {
		t.Fatalf("delete sale: %v", err)
	}

	after, err := svc.ListSales()
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(after) != len(before)-1 {
		t.Fatalf("want %d sales, got %d", len(before)-1, len(after))
	}
	for _, s := range after {
		if s.SaleID == 2 {
			t.Fatalf("sale 2 still listed after delete")
		}
	}

	// Deleting a sale never restores stock.
	book, _ := svc.GetBook("B002")
	if book.Stock != 30 {
		t.Fatalf("stock changed by delete: %d", book.Stock)
	}
}

func TestProjectionsOrderedBySaleID(t *testing.T) {
	svc := tempService(t)

	if _, err := svc.CreateSale("2024-02-01", "M002", "B002", 1, 0); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateSale("2024-02-02", "M003", "B001", 2, 50); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if err := svc.DeleteSale(3); err != nil {
		t.Fatalf("delete sale: %v", err)
	}

	sales, err := svc.ListSales()
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	for i := 1; i < len(sales); i++ {
		if sales[i].SaleID <= sales[i-1].SaleID {
			t.Fatalf("list not ordered at %d: %d after %d", i, sales[i].SaleID, sales[i-1].SaleID)
		}
	}

	lines, err := svc.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].SaleID <= lines[i-1].SaleID {
			t.Fatalf("report not ordered at %d", i)
		}
	}
}

func TestReportIsIdempotent(t *testing.T) {
	svc := tempService(t)

	first, err := svc.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	second, err := svc.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("report changed without mutation")
	}
}

func TestReportLineFields(t *testing.T) {
	svc := tempService(t)

	lines, err := svc.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("want 4 seeded lines, got %d", len(lines))
	}

	want := ReportLine{
		SaleID:     1,
		Date:       "2024-01-15",
		MemberName: "Alice",
		BookTitle:  "Python Programming",
		Price:      600,
		Quantity:   2,
		Discount:   100,
		Total:      1100,
	}
	if *lines[0] != want {
		t.Fatalf("first report line mismatch:\n got %+v\nwant %+v", *lines[0], want)
	}
}
