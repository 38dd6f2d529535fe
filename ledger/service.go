package ledger

import (
	"strings"

	"go.uber.org/zap"
)

// dateFormatLength is the fixed width of a sale date token (YYYY-MM-DD).
const dateFormatLength = 10

// Service is the sales ledger: it validates input, runs each mutation as one
// atomic storage transaction, and exposes the two read projections. It owns
// its Database handle; there is no shared global state.
type Service struct {
	db     *Database
	logger *zap.Logger
}

// NewService opens (or creates) the SQLite store at dbPath. A nil logger
// disables logging.
func NewService(dbPath string, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Service) Close() error { return s.db.Close() }

// validDate checks the fixed-width date token: exactly 10 characters with
// exactly two '-' separators. This is a format check only; "9999-99-99"
// passes.
func validDate(date string) bool {
	return len(date) == dateFormatLength && strings.Count(date, "-") == 2
}

// CreateSale records a sale and decrements the book's stock atomically.
// It returns the created sale with its assigned id and persisted total.
func (s *Service) CreateSale(date, memberID, bookID string, quantity, discount int64) (*Sale, error) {
	if !validDate(date) {
		return nil, &ValidationError{Field: "date", Reason: "must be 10 characters in YYYY-MM-DD form"}
	}
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if discount < 0 {
		return nil, &ValidationError{Field: "discount", Reason: "must not be negative"}
	}

	sale, err := s.db.CreateSale(date, memberID, bookID, quantity, discount)
	if err != nil {
		s.logger.Error("create sale failed",
			zap.String("member_id", memberID),
			zap.String("book_id", bookID),
			zap.Int64("quantity", quantity),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("sale recorded",
		zap.Int64("sid", sale.ID),
		zap.String("member_id", memberID),
		zap.String("book_id", bookID),
		zap.Int64("quantity", quantity),
		zap.Int64("total", sale.Total))
	return sale, nil
}

// UpdateDiscount sets a new discount on an existing sale and returns the
// recomputed total. The total is recomputed from the book's price at update
// time, not the price recorded when the sale occurred; if prices were ever
// mutated this would change historical totals. No bound is enforced above,
// so a discount exceeding price*quantity yields a negative total.
func (s *Service) UpdateDiscount(saleID, newDiscount int64) (int64, error) {
	if newDiscount < 0 {
		return 0, &ValidationError{Field: "discount", Reason: "must not be negative"}
	}

	newTotal, err := s.db.UpdateSaleDiscount(saleID, newDiscount)
	if err != nil {
		s.logger.Error("update discount failed", zap.Int64("sid", saleID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("sale discount updated",
		zap.Int64("sid", saleID),
		zap.Int64("discount", newDiscount),
		zap.Int64("total", newTotal))
	return newTotal, nil
}

// DeleteSale removes a sale from the ledger. The book's stock is not
// restored: recorded sales are historical facts, and erasing one does not
// put copies back on the shelf.
func (s *Service) DeleteSale(saleID int64) error {
	if err := s.db.DeleteSale(saleID); err != nil {
		s.logger.Error("delete sale failed", zap.Int64("sid", saleID), zap.Error(err))
		return err
	}
	s.logger.Info("sale deleted", zap.Int64("sid", saleID))
	return nil
}

// ListSales returns a selectable summary of every sale, ordered by sid.
func (s *Service) ListSales() ([]*SaleSummary, error) { return s.db.ListSales() }

// Report returns the full joined sale lines, ordered by sid. It has no side
// effects and always reflects the latest committed state.
func (s *Service) Report() ([]*ReportLine, error) { return s.db.Report() }

// ------------------ Catalog helpers ------------------

func (s *Service) GetMember(memberID string) (*Member, error) { return s.db.GetMember(memberID) }
func (s *Service) GetBook(bookID string) (*Book, error)       { return s.db.GetBook(bookID) }
func (s *Service) GetSale(saleID int64) (*Sale, error)        { return s.db.GetSale(saleID) }
func (s *Service) GetAllMembers() ([]*Member, error)          { return s.db.GetAllMembers() }
func (s *Service) GetAllBooks() ([]*Book, error)              { return s.db.GetAllBooks() }
