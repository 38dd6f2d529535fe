package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bookstore-ledger/config"
	"bookstore-ledger/ledger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:   "bookstore",
		Short: "Sales ledger for a small bookstore",
		Long:  "Interactive sales ledger: record sales with stock decrement, adjust discounts, delete sales and print reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ledger.NewService(cfg.DBPath, logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			runMenu(svc)
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "report",
			Short: "Print the sales report and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := ledger.NewService(cfg.DBPath, logger)
				if err != nil {
					return err
				}
				defer svc.Close()
				return printReport(svc)
			},
		},
		&cobra.Command{
			Use:   "books",
			Short: "List the book catalog",
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := ledger.NewService(cfg.DBPath, logger)
				if err != nil {
					return err
				}
				defer svc.Close()
				return printBooks(svc)
			},
		},
		&cobra.Command{
			Use:   "members",
			Short: "List registered members",
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := ledger.NewService(cfg.DBPath, logger)
				if err != nil {
					return err
				}
				defer svc.Close()
				return printMembers(svc)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ---------------------------------------------------------------------------
// Interactive menu
// ---------------------------------------------------------------------------

func runMenu(svc *ledger.Service) {
	scanner := bufio.NewScanner(os.Stdin)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("Welcome to the Bookstore Sales Ledger!")
	}

	for {
		fmt.Println()
		fmt.Println("*************** Menu ***************")
		fmt.Println("1. Record a sale")
		fmt.Println("2. Show sales report")
		fmt.Println("3. Update a sale's discount")
		fmt.Println("4. Delete a sale")
		fmt.Println("5. Exit")
		fmt.Println("************************************")
		fmt.Print("Choose an option (1-5): ")

		if !scanner.Scan() {
			return
		}
		choice := strings.TrimSpace(scanner.Text())
		if choice == "" {
			continue
		}

		switch choice {
		case "1":
			handleAddSale(scanner, svc)
		case "2":
			if err := printReport(svc); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "3":
			handleUpdateSale(scanner, svc)
		case "4":
			handleDeleteSale(scanner, svc)
		case "5":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Please enter a valid option (1-5).")
		}
	}
}

func handleAddSale(sc *bufio.Scanner, svc *ledger.Service) {
	fmt.Print("Sale date (YYYY-MM-DD): ")
	if !sc.Scan() {
		return
	}
	date := strings.TrimSpace(sc.Text())

	fmt.Print("Member ID: ")
	if !sc.Scan() {
		return
	}
	memberID := strings.TrimSpace(sc.Text())

	fmt.Print("Book ID: ")
	if !sc.Scan() {
		return
	}
	bookID := strings.TrimSpace(sc.Text())

	quantity, ok := promptInt(sc, "Quantity: ", true)
	if !ok {
		return
	}
	discount, ok := promptInt(sc, "Discount amount: ", false)
	if !ok {
		return
	}

	sale, err := svc.CreateSale(date, memberID, bookID, quantity, discount)
	if err != nil {
		var stockErr *ledger.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			fmt.Printf("Error: not enough stock (current stock: %d)\n", stockErr.Stock)
		case errors.Is(err, ledger.ErrNotFound):
			fmt.Println("Error: invalid member ID or book ID")
		default:
			fmt.Printf("Error: %v\n", err)
		}
		return
	}

	fmt.Printf("Sale recorded! (sale ID: %d, total: %s)\n", sale.ID, formatAmount(sale.Total))
}

func handleUpdateSale(sc *bufio.Scanner, svc *ledger.Service) {
	saleID, ok := selectSale(sc, svc, "update")
	if !ok {
		return
	}

	newDiscount, ok := promptInt(sc, "New discount amount: ", false)
	if !ok {
		return
	}

	newTotal, err := svc.UpdateDiscount(saleID, newDiscount)
	if err != nil {
		fmt.Printf("Error updating sale: %v\n", err)
		return
	}
	fmt.Printf("Sale %d updated! (new total: %s)\n", saleID, formatAmount(newTotal))
}

func handleDeleteSale(sc *bufio.Scanner, svc *ledger.Service) {
	saleID, ok := selectSale(sc, svc, "delete")
	if !ok {
		return
	}

	if err := svc.DeleteSale(saleID); err != nil {
		fmt.Printf("Error deleting sale: %v\n", err)
		return
	}
	fmt.Printf("Sale %d deleted\n", saleID)
}

// selectSale lists all sales with 1-based ordinals and lets the operator pick
// one. Empty input cancels; the second return value is false when no sale was
// chosen.
func selectSale(sc *bufio.Scanner, svc *ledger.Service, verb string) (int64, bool) {
	sales, err := svc.ListSales()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 0, false
	}
	if len(sales) == 0 {
		fmt.Println("No sales recorded.")
		return 0, false
	}

	fmt.Println("\n======== Sales ========")
	for i, s := range sales {
		fmt.Printf("%d. Sale ID: %d - Member: %s - Date: %s\n", i+1, s.SaleID, s.MemberName, s.Date)
	}
	fmt.Println("=======================")

	fmt.Printf("Choose a sale to %s (number, or Enter to cancel): ", verb)
	if !sc.Scan() {
		return 0, false
	}
	choice := strings.TrimSpace(sc.Text())
	if choice == "" {
		return 0, false
	}

	index, err := strconv.Atoi(choice)
	if err != nil || index < 1 || index > len(sales) {
		fmt.Println("Error: please enter a valid number")
		return 0, false
	}
	return sales[index-1].SaleID, true
}

// promptInt re-prompts until a valid integer is entered. When positiveOnly is
// set the value must be > 0, otherwise it must be >= 0. Returns false only
// when the input stream ends.
func promptInt(sc *bufio.Scanner, prompt string, positiveOnly bool) (int64, bool) {
	for {
		fmt.Print(prompt)
		if !sc.Scan() {
			return 0, false
		}
		value, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
		if err != nil {
			fmt.Println("Error: please enter a valid integer")
			continue
		}
		if positiveOnly && value <= 0 {
			fmt.Println("Error: value must be a positive integer")
			continue
		}
		if value < 0 {
			fmt.Println("Error: value must not be negative")
			continue
		}
		return value, true
	}
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func printReport(svc *ledger.Service) error {
	lines, err := svc.Report()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Println("No sales recorded.")
		return nil
	}

	for i, l := range lines {
		fmt.Printf("\nSale #%d\n", i+1)
		fmt.Printf("Sale ID:   %d\n", l.SaleID)
		fmt.Printf("Date:      %s\n", l.Date)
		fmt.Printf("Member:    %s\n", l.MemberName)
		fmt.Printf("Book:      %s\n", l.BookTitle)
		fmt.Println(strings.Repeat("-", 50))
		fmt.Println("Price\tQty\tDiscount\tSubtotal")
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("%d\t%d\t%d\t%s\n", l.Price, l.Quantity, l.Discount, formatAmount(l.Total))
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("Sale total: %s\n", formatAmount(l.Total))
		fmt.Println(strings.Repeat("=", 50))
	}
	return nil
}

func printBooks(svc *ledger.Service) error {
	books, err := svc.GetAllBooks()
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No books in catalog.")
		return nil
	}

	fmt.Printf("%-6s %-30s %10s %8s\n", "ID", "Title", "Price", "Stock")
	fmt.Println(strings.Repeat("-", 58))
	for _, b := range books {
		fmt.Printf("%-6s %-30s %10s %8d\n", b.ID, truncateString(b.Title, 30), formatAmount(b.Price), b.Stock)
	}
	return nil
}

func printMembers(svc *ledger.Service) error {
	members, err := svc.GetAllMembers()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No members registered.")
		return nil
	}

	fmt.Printf("%-6s %-20s %-15s %s\n", "ID", "Name", "Phone", "Email")
	fmt.Println(strings.Repeat("-", 70))
	for _, m := range members {
		fmt.Printf("%-6s %-20s %-15s %s\n", m.ID, truncateString(m.Name, 20), m.Phone, m.Email)
	}
	return nil
}

// formatAmount renders a currency amount with thousands separators, e.g.
// -1234567 -> "-1,234,567".
func formatAmount(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sign + sb.String()
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
