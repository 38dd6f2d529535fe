package main

import (
	"fmt"
	"os"
	"strings"

	"bookstore-ledger/config"
	"bookstore-ledger/ledger"
)

// seedledger resets the bookstore database to a pristine seeded state and
// prints the resulting catalog and ledger.
func main() {
	cfg := config.Load()

	fmt.Println("Cleaning up existing database files...")
	dbFiles := []string{cfg.DBPath, cfg.DBPath + "-shm", cfg.DBPath + "-wal"}
	for _, file := range dbFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Database cleanup complete.")

	// Opening the store applies migrations, which insert the seed rows.
	svc, err := ledger.NewService(cfg.DBPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	members, err := svc.GetAllMembers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading members: %v\n", err)
		os.Exit(1)
	}
	books, err := svc.GetAllBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading books: %v\n", err)
		os.Exit(1)
	}
	sales, err := svc.ListSales()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading sales: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSeeded %s with %d members, %d books, %d sales.\n\n",
		cfg.DBPath, len(members), len(books), len(sales))

	fmt.Printf("%-6s %-20s %-15s %s\n", "ID", "Name", "Phone", "Email")
	fmt.Println(strings.Repeat("-", 70))
	for _, m := range members {
		fmt.Printf("%-6s %-20s %-15s %s\n", m.ID, m.Name, m.Phone, m.Email)
	}

	fmt.Printf("\n%-6s %-30s %8s %8s\n", "ID", "Title", "Price", "Stock")
	fmt.Println(strings.Repeat("-", 56))
	for _, b := range books {
		fmt.Printf("%-6s %-30s %8d %8d\n", b.ID, b.Title, b.Price, b.Stock)
	}

	fmt.Printf("\n%-6s %-20s %s\n", "ID", "Member", "Date")
	fmt.Println(strings.Repeat("-", 40))
	for _, s := range sales {
		fmt.Printf("%-6d %-20s %s\n", s.SaleID, s.MemberName, s.Date)
	}
}
