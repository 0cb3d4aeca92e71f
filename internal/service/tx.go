package service

import (
	"database/sql"

	"gorm.io/gorm"
)

// TxRunner is the slice of *gorm.DB the services need to open a
// transaction. Tests substitute a fake that invokes the closure with a
// nil tx so mock repositories can ignore WithTx.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}
