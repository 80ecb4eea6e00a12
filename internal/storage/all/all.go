// Package all registers every storage backend with the factory. Importing it
// for side effects is enough:
//
//	import _ "csvingest/internal/storage/all"
package all

import (
	_ "csvingest/internal/storage/mssql"
	_ "csvingest/internal/storage/mysql"
	_ "csvingest/internal/storage/postgres"
	_ "csvingest/internal/storage/sqlite"
)
