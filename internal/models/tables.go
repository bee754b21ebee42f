package models

// Operation is a queued write kind.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ValidOperation reports whether op is one of insert/update/delete.
func ValidOperation(op Operation) bool {
	switch op {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// SyncedTables is the closed set of tables mirrored into the local store,
// in the order the download phase walks them.
var SyncedTables = []string{
	"customers",
	"vendors",
	"products",
	"invoices",
	"invoice_items",
	"payments",
	"units",
	"loose_products",
}

// invoiceItemsTable is the one table scoped by invoice rather than tenant.
// It has no company_id column on the backend and is fetched unfiltered.
const invoiceItemsTable = "invoice_items"

// IsSyncedTable reports whether name is part of the synchronized table set.
func IsSyncedTable(name string) bool {
	for _, t := range SyncedTables {
		if t == name {
			return true
		}
	}
	return false
}

// TenantScoped reports whether the table carries a company_id column.
// Line items are scoped by invoice_id instead and cannot be filtered by
// tenant, locally or remotely.
func TenantScoped(table string) bool {
	return table != invoiceItemsTable
}

// ScopeColumn returns the secondary index column for a synced table:
// company_id for tenant-scoped tables, invoice_id for line items.
func ScopeColumn(table string) string {
	if table == invoiceItemsTable {
		return "invoice_id"
	}
	return "company_id"
}

// ScopeValue returns the record's value for the table's scope column.
func ScopeValue(table string, r Record) string {
	if table == invoiceItemsTable {
		return r.InvoiceID()
	}
	return r.CompanyID()
}
