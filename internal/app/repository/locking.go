package repository

import (
	"gorm.io/gorm/clause"
)

// lockForUpdate is the row-level lock clause used by every locked read.
// Postgres honors it; the SQLite test driver treats it as a no-op.
//
// Transactions that lock rows of more than one kind must acquire them in
// a fixed hierarchy: cart row, then variant rows (ascending id, see
// LockByIDs), then cart item rows. Cart mutations and checkout all
// follow it; a new locked path must slot into the same order.
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
