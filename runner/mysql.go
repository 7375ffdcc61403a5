package runner

import (
	_ "github.com/go-sql-driver/mysql"
)

// NewMySQL builds a Runner that reaches MySQL/MariaDB targets via
// go-sql-driver/mysql. creds.TNS is the driver's DSN
// (user:pass@tcp(host:port)/dbname).
func NewMySQL(opts Options) (Runner, error) {
	return newSQLRunner("mysql", opts), nil
}
