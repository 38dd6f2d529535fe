package ledger

// Member is a registered store member. Members are created by seed data only;
// no operation in this tool mutates or deletes them.
type Member struct {
	ID    string `json:"mid"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Book is a catalog entry. Price is in the smallest currency unit. Stock is
// only ever decremented, as a side effect of recording a sale.
type Book struct {
	ID    string `json:"bid"`
	Title string `json:"title"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

// Sale is one ledger line. Total is persisted at creation time
// (price*quantity - discount) and is not recomputed on read.
type Sale struct {
	ID       int64  `json:"sid"`
	Date     string `json:"date"`
	MemberID string `json:"mid"`
	BookID   string `json:"bid"`
	Quantity int64  `json:"quantity"`
	Discount int64  `json:"discount"`
	Total    int64  `json:"total"`
}

// SaleSummary is the row shape returned by ListSales, enough for a caller to
// present a selectable list.
type SaleSummary struct {
	SaleID     int64  `json:"sid"`
	MemberName string `json:"member_name"`
	Date       string `json:"date"`
}

// ReportLine is one fully joined sale line for the sales report.
type ReportLine struct {
	SaleID     int64  `json:"sid"`
	Date       string `json:"date"`
	MemberName string `json:"member_name"`
	BookTitle  string `json:"book_title"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	Discount   int64  `json:"discount"`
	Total      int64  `json:"total"`
}
