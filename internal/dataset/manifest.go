package dataset

// FileSpec describes one expected input file.
type FileSpec struct {
	// Table is the logical table name used throughout the pipeline.
	Table string
	// File is the file name under the data directory.
	File string
	// Required files raise a MissingDataError when absent; the run still
	// continues with the reduced table set.
	Required bool
	// KeyColumns are identifier columns expected to be unique and non-null.
	KeyColumns []string
}

// JoinSpec declares a cross-table join used by the exploration stage.
type JoinSpec struct {
	Name       string
	LeftTable  string
	RightTable string
	Key        string
}

// Manifest is the fixed catalogue of input files and declared joins.
type Manifest struct {
	Files []FileSpec
	Joins []JoinSpec
}

// Logical table names.
const (
	TableOrders     = "orders"
	TableCustomers  = "customers"
	TableOrderItems = "order_items"
	TablePayments   = "order_payments"
	TableProducts   = "products"
	TableReviews    = "order_reviews"
	TableCategories = "product_categories"
	TableSellers    = "sellers"
	TableGeo        = "geolocation"
)

// DefaultManifest returns the standard e-commerce dataset manifest.
func DefaultManifest() Manifest {
	return Manifest{
		Files: []FileSpec{
			{Table: TableOrders, File: "orders.csv", Required: true, KeyColumns: []string{"order_id"}},
			{Table: TableCustomers, File: "customers.csv", Required: true, KeyColumns: []string{"customer_id"}},
			{Table: TableOrderItems, File: "order_items.csv", Required: true},
			{Table: TablePayments, File: "order_payments.csv", Required: false},
			{Table: TableProducts, File: "products.csv", Required: false, KeyColumns: []string{"product_id"}},
			{Table: TableReviews, File: "order_reviews.csv", Required: false, KeyColumns: []string{"review_id"}},
			{Table: TableCategories, File: "product_categories.csv", Required: false},
			{Table: TableSellers, File: "sellers.csv", Required: false, KeyColumns: []string{"seller_id"}},
			{Table: TableGeo, File: "geolocation.csv", Required: false},
		},
		Joins: []JoinSpec{
			{Name: "order_values", LeftTable: TableOrders, RightTable: TableOrderItems, Key: "order_id"},
			{Name: "customer_orders", LeftTable: TableCustomers, RightTable: TableOrders, Key: "customer_id"},
		},
	}
}

// FileFor returns the spec for a logical table name.
func (m Manifest) FileFor(table string) (FileSpec, bool) {
	for _, f := range m.Files {
		if f.Table == table {
			return f, true
		}
	}
	return FileSpec{}, false
}
