package keystone

// All three supported drivers register here so connection probing works in
// any embedding without extra imports.
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)
