package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Every data table carries user_id and cascades on user deletion.  Username
// and email use a binary collation on MySQL so lookups are case-sensitive,
// matching SQLite's default BINARY collation.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
		email VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		created_at DATETIME(3) NOT NULL,
		last_login DATETIME(3) NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email),
		KEY idx_users_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	mysqlEntryTable("expenses"),
	mysqlEntryTable("investments"),
	mysqlLedgerTable("credit_card_entries"),
	mysqlLedgerTable("income_entries"),
	mysqlLedgerTable("external_investment_buffer"),
	`CREATE TABLE IF NOT EXISTS templates (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		kind VARCHAR(16) NOT NULL,
		items JSON NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_templates_user_kind (user_id, kind),
		CONSTRAINT fk_templates_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notes (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		month CHAR(7) NOT NULL,
		content TEXT NOT NULL,
		credit_card_tracker_title VARCHAR(255) NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_notes_user_month (user_id, month),
		CONSTRAINT fk_notes_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func mysqlEntryTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		amount DOUBLE NOT NULL,
		category VARCHAR(64) NOT NULL DEFAULT '',
		month CHAR(7) NOT NULL,
		source_type VARCHAR(16) NOT NULL DEFAULT 'manual',
		display_order INT NULL,
		is_completed TINYINT(1) NOT NULL DEFAULT 0,
		investment_type VARCHAR(64) NULL,
		created_at DATETIME(3) NOT NULL,
		KEY idx_%[1]s_user_month (user_id, month),
		CONSTRAINT fk_%[1]s_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, name)
}

func mysqlLedgerTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		description VARCHAR(255) NOT NULL,
		amount DOUBLE NOT NULL,
		month CHAR(7) NOT NULL,
		display_order INT NULL,
		created_at DATETIME(3) NOT NULL,
		KEY idx_%[1]s_user_month (user_id, month),
		CONSTRAINT fk_%[1]s_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, name)
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL,
		last_login DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_status ON users(status)`,
	sqliteEntryTable("expenses"),
	sqliteIndex("expenses"),
	sqliteEntryTable("investments"),
	sqliteIndex("investments"),
	sqliteLedgerTable("credit_card_entries"),
	sqliteIndex("credit_card_entries"),
	sqliteLedgerTable("income_entries"),
	sqliteIndex("income_entries"),
	sqliteLedgerTable("external_investment_buffer"),
	sqliteIndex("external_investment_buffer"),
	`CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		items TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		month TEXT NOT NULL,
		content TEXT NOT NULL,
		credit_card_tracker_title TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, month)
	)`,
}

func sqliteEntryTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		amount REAL NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		month TEXT NOT NULL,
		source_type TEXT NOT NULL DEFAULT 'manual',
		display_order INTEGER NULL,
		is_completed INTEGER NOT NULL DEFAULT 0,
		investment_type TEXT NULL,
		created_at DATETIME NOT NULL
	)`, name)
}

func sqliteLedgerTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		amount REAL NOT NULL,
		month TEXT NOT NULL,
		display_order INTEGER NULL,
		created_at DATETIME NOT NULL
	)`, name)
}

func sqliteIndex(table string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_user_month ON %[1]s(user_id, month)", table)
}

// Migrate creates the schema for the given driver.  Statements are
// idempotent so it runs on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
