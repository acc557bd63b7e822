package services

import (
	"database/sql"

	"gorm.io/gorm"
)

// txOptions selects serializable isolation on postgres so that
// capacity-check-then-insert and multi-row token rotation commit as one
// atomic unit under concurrency. SQLite (used by the test suite) is
// serializable by default and its driver rejects explicit isolation levels,
// so no options are passed there.
func txOptions(db *gorm.DB) []*sql.TxOptions {
	if db.Dialector.Name() == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return nil
}
