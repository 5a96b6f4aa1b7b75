// Package all registers every built-in storage backend.
package all

import (
	_ "surveyetl/internal/storage/mssql"
	_ "surveyetl/internal/storage/mysql"
	_ "surveyetl/internal/storage/postgres"
	_ "surveyetl/internal/storage/sqlite"
)
