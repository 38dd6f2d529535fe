package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Database provides typed access to the bookstore's SQLite store. Rows are
// converted to Member/Book/Sale records at this boundary; nothing above it
// touches raw columns.
type Database struct {
	db *sql.DB

	insertSaleStmt *sql.Stmt
	decStockStmt   *sql.Stmt
	updateSaleStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations including seed data, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertSaleStmt != nil {
		d.insertSaleStmt.Close()
	}
	if d.decStockStmt != nil {
		d.decStockStmt.Close()
	}
	if d.updateSaleStmt != nil {
		d.updateSaleStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS member (
            mid TEXT PRIMARY KEY,
            mname TEXT NOT NULL,
            mphone TEXT NOT NULL,
            memail TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS book (
            bid TEXT PRIMARY KEY,
            btitle TEXT NOT NULL,
            bprice INTEGER NOT NULL,
            bstock INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sale (
            sid INTEGER PRIMARY KEY AUTOINCREMENT,
            sdate TEXT NOT NULL,
            mid TEXT NOT NULL REFERENCES member(mid),
            bid TEXT NOT NULL REFERENCES book(bid),
            sqty INTEGER NOT NULL,
            sdiscount INTEGER NOT NULL,
            stotal INTEGER NOT NULL
        );`,
		`INSERT OR IGNORE INTO member VALUES
            ('M001', 'Alice', '0912-345678', 'alice@example.com'),
            ('M002', 'Bob', '0923-456789', 'bob@example.com'),
            ('M003', 'Cathy', '0934-567890', 'cathy@example.com');`,
		`INSERT OR IGNORE INTO book VALUES
            ('B001', 'Python Programming', 600, 50),
            ('B002', 'Data Science Basics', 800, 30),
            ('B003', 'Machine Learning Guide', 1200, 20);`,
		`INSERT OR IGNORE INTO sale (sid, sdate, mid, bid, sqty, sdiscount, stotal) VALUES
            (1, '2024-01-15', 'M001', 'B001', 2, 100, 1100),
            (2, '2024-01-16', 'M002', 'B002', 1, 50, 750),
            (3, '2024-01-17', 'M001', 'B003', 3, 200, 3400),
            (4, '2024-01-18', 'M003', 'B001', 1, 0, 600);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertSaleStmt, err = d.db.Prepare(`INSERT INTO sale (sdate,mid,bid,sqty,sdiscount,stotal) VALUES(?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.decStockStmt, err = d.db.Prepare(`UPDATE book SET bstock = bstock - ? WHERE bid=?`); err != nil {
		return err
	}
	if d.updateSaleStmt, err = d.db.Prepare(`UPDATE sale SET sdiscount=?, stotal=? WHERE sid=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scoped transactions
// ---------------------------------------------------------------------------

// withTx runs fn inside a transaction. The transaction commits only when fn
// returns nil; every other exit path rolls back. Begin/commit failures are
// reported as StorageError carrying op.
func (d *Database) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &StorageError{Op: op, Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: op, Err: err}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Point lookups
// ---------------------------------------------------------------------------

func (d *Database) GetMember(mid string) (*Member, error) {
	var m Member
	err := d.db.QueryRow(`SELECT mid,mname,mphone,COALESCE(memail,'') FROM member WHERE mid=?`, mid).
		Scan(&m.ID, &m.Name, &m.Phone, &m.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %q", ErrNotFound, mid)
	}
	if err != nil {
		return nil, &StorageError{Op: "get member", Err: err}
	}
	return &m, nil
}

func (d *Database) GetBook(bid string) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT bid,btitle,bprice,bstock FROM book WHERE bid=?`, bid).
		Scan(&b.ID, &b.Title, &b.Price, &b.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: book %q", ErrNotFound, bid)
	}
	if err != nil {
		return nil, &StorageError{Op: "get book", Err: err}
	}
	return &b, nil
}

func (d *Database) GetSale(sid int64) (*Sale, error) {
	var s Sale
	err := d.db.QueryRow(`SELECT sid,sdate,mid,bid,sqty,sdiscount,stotal FROM sale WHERE sid=?`, sid).
		Scan(&s.ID, &s.Date, &s.MemberID, &s.BookID, &s.Quantity, &s.Discount, &s.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sale %d", ErrNotFound, sid)
	}
	if err != nil {
		return nil, &StorageError{Op: "get sale", Err: err}
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// Catalog reads
// ---------------------------------------------------------------------------

// GetAllMembers returns all members ordered by id.
func (d *Database) GetAllMembers() ([]*Member, error) {
	rows, err := d.db.Query(`SELECT mid,mname,mphone,COALESCE(memail,'') FROM member ORDER BY mid`)
	if err != nil {
		return nil, &StorageError{Op: "list members", Err: err}
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Email); err != nil {
			return nil, &StorageError{Op: "list members", Err: err}
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// GetAllBooks returns the catalog ordered by id.
func (d *Database) GetAllBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT bid,btitle,bprice,bstock FROM book ORDER BY bid`)
	if err != nil {
		return nil, &StorageError{Op: "list books", Err: err}
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.Stock); err != nil {
			return nil, &StorageError{Op: "list books", Err: err}
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// ---------------------------------------------------------------------------
// Ledger mutations
// ---------------------------------------------------------------------------

// CreateSale inserts the sale row and decrements the book's stock in one
// transaction. Member and book existence and the stock precondition are
// checked inside the same transaction, so a failure leaves no trace.
func (d *Database) CreateSale(date, mid, bid string, quantity, discount int64) (*Sale, error) {
	sale := &Sale{
		Date:     date,
		MemberID: mid,
		BookID:   bid,
		Quantity: quantity,
		Discount: discount,
	}

	err := d.withTx("create sale", func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM member WHERE mid=?)`, mid).Scan(&exists); err != nil {
			return &StorageError{Op: "create sale", Err: err}
		}
		if !exists {
			return fmt.Errorf("%w: member %q", ErrNotFound, mid)
		}

		var price, stock int64
		err := tx.QueryRow(`SELECT bprice,bstock FROM book WHERE bid=?`, bid).Scan(&price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: book %q", ErrNotFound, bid)
		}
		if err != nil {
			return &StorageError{Op: "create sale", Err: err}
		}
		if stock < quantity {
			return &InsufficientStockError{BookID: bid, Stock: stock, Requested: quantity}
		}

		sale.Total = price*quantity - discount

		res, err := tx.Stmt(d.insertSaleStmt).Exec(date, mid, bid, quantity, discount, sale.Total)
		if err != nil {
			return &StorageError{Op: "create sale", Err: err}
		}
		sid, err := res.LastInsertId()
		if err != nil {
			return &StorageError{Op: "create sale", Err: err}
		}
		sale.ID = sid

		if _, err := tx.Stmt(d.decStockStmt).Exec(quantity, bid); err != nil {
			return &StorageError{Op: "create sale", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateSaleDiscount sets a new discount on the sale and recomputes the total
// from the book's current price. Stock is untouched.
func (d *Database) UpdateSaleDiscount(sid, discount int64) (int64, error) {
	var newTotal int64

	err := d.withTx("update discount", func(tx *sql.Tx) error {
		var bid string
		var quantity int64
		err := tx.QueryRow(`SELECT bid,sqty FROM sale WHERE sid=?`, sid).Scan(&bid, &quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: sale %d", ErrNotFound, sid)
		}
		if err != nil {
			return &StorageError{Op: "update discount", Err: err}
		}

		var price int64
		if err := tx.QueryRow(`SELECT bprice FROM book WHERE bid=?`, bid).Scan(&price); err != nil {
			return &StorageError{Op: "update discount", Err: err}
		}

		newTotal = price*quantity - discount
		if _, err := tx.Stmt(d.updateSaleStmt).Exec(discount, newTotal, sid); err != nil {
			return &StorageError{Op: "update discount", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newTotal, nil
}

// DeleteSale removes the sale row. The book's stock is not restored; a deleted
// sale is an erased record, not a return of inventory.
func (d *Database) DeleteSale(sid int64) error {
	return d.withTx("delete sale", func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM sale WHERE sid=?`, sid)
		if err != nil {
			return &StorageError{Op: "delete sale", Err: err}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return &StorageError{Op: "delete sale", Err: err}
		}
		if affected == 0 {
			return fmt.Errorf("%w: sale %d", ErrNotFound, sid)
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Read projections
// ---------------------------------------------------------------------------

// ListSales returns {sid, member name, date} for every sale, ordered by sid.
func (d *Database) ListSales() ([]*SaleSummary, error) {
	rows, err := d.db.Query(`
        SELECT s.sid, m.mname, s.sdate
        FROM sale s
        JOIN member m ON s.mid = m.mid
        ORDER BY s.sid`)
	if err != nil {
		return nil, &StorageError{Op: "list sales", Err: err}
	}
	defer rows.Close()

	var sales []*SaleSummary
	for rows.Next() {
		var s SaleSummary
		if err := rows.Scan(&s.SaleID, &s.MemberName, &s.Date); err != nil {
			return nil, &StorageError{Op: "list sales", Err: err}
		}
		sales = append(sales, &s)
	}
	return sales, rows.Err()
}

// Report returns the full joined sale lines ordered by sid.
func (d *Database) Report() ([]*ReportLine, error) {
	rows, err := d.db.Query(`
        SELECT s.sid, s.sdate, m.mname, b.btitle, b.bprice, s.sqty, s.sdiscount, s.stotal
        FROM sale s
        JOIN member m ON s.mid = m.mid
        JOIN book b ON s.bid = b.bid
        ORDER BY s.sid`)
	if err != nil {
		return nil, &StorageError{Op: "report", Err: err}
	}
	defer rows.Close()

	var lines []*ReportLine
	for rows.Next() {
		var l ReportLine
		if err := rows.Scan(&l.SaleID, &l.Date, &l.MemberName, &l.BookTitle, &l.Price, &l.Quantity, &l.Discount, &l.Total); err != nil {
			return nil, &StorageError{Op: "report", Err: err}
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
