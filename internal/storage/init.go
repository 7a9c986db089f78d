package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/fatali-fataliyev/finance_tracker/internal/config"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open connects to the database configured in cfg, waits for it to answer and applies pending
// migrations. It returns the handle and the dialect used to talk to it.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, string, error) {
	dialect := cfg.StorageDriver

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, "", err
	}

	if dialect == DialectMySQL {
		if err := ensureMySQLDatabase(ctx, dsn, cfg); err != nil {
			return nil, "", err
		}
	}

	logging.Logger.Infof("Connecting to %s database...", dialect)
	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database handle: %w", err)
	}
	if dialect == DialectSQLite {
		// one writer at a time, and :memory: databases live in a single connection
		db.SetMaxOpenConns(1)
	}

	if err := waitForDB(ctx, db, cfg.DBConnectAttempts, cfg.DBConnectDelay); err != nil {
		db.Close()
		return nil, "", err
	}
	logging.Logger.Info("Connected to database successfully")

	logging.Logger.Info("Running migrations...")
	if err := RunMigrations(ctx, db, dialect); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, dialect, nil
}

func buildDSN(cfg config.Config) (string, error) {
	switch cfg.StorageDriver {
	case DialectSQLite:
		if cfg.FullDSN != "" {
			return cfg.FullDSN, nil
		}
		return cfg.SQLitePath + "?_pragma=busy_timeout(5000)", nil

	case DialectPostgres:
		if cfg.FullDSN != "" {
			return cfg.FullDSN, nil
		}
		if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBPort == "" {
			return "", fmt.Errorf("missing required DB environment variables")
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DBUser, cfg.DBPass),
			Host:     cfg.DBHost + ":" + cfg.DBPort,
			Path:     "/" + cfg.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil

	case DialectMySQL:
		var mc *mysql.Config
		if cfg.FullDSN != "" {
			parsed, err := mysql.ParseDSN(cfg.FullDSN)
			if err != nil {
				return "", fmt.Errorf("invalid FULL_DSN: %w", err)
			}
			mc = parsed
		} else {
			if cfg.DBUser == "" || cfg.DBPass == "" || cfg.DBHost == "" || cfg.DBPort == "" {
				return "", fmt.Errorf("missing required DB environment variables")
			}
			mc = mysql.NewConfig()
			mc.User = cfg.DBUser
			mc.Passwd = cfg.DBPass
			mc.Net = "tcp"
			mc.Addr = cfg.DBHost + ":" + cfg.DBPort
			mc.DBName = cfg.DBName
		}
		mc.ParseTime = true
		// updates that change nothing must still report the matched row
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	}
	return "", fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
}

func waitForDB(ctx context.Context, db *sql.DB, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/%d)", i+1, attempts)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// ensureMySQLDatabase creates the target schema when the server does not have it yet.
func ensureMySQLDatabase(ctx context.Context, dsn string, cfg config.Config) error {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("invalid mysql dsn: %w", err)
	}
	dbname := mc.DBName
	if dbname == "" {
		return nil
	}
	mc.DBName = ""

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open admin mysql handle: %w", err)
	}
	defer adminDb.Close()

	if err := waitForDB(ctx, adminDb, cfg.DBConnectAttempts, cfg.DBConnectDelay); err != nil {
		return err
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRowContext(ctx, checkDbnameExistQuery, dbname).Scan(&dbnameExistence)
	if errors.Is(err, sql.ErrNoRows) {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci", strings.ReplaceAll(dbname, "`", ""))
		if _, err := adminDb.ExecContext(ctx, createDbSql); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	return nil
}

// RunMigrations applies, in name order, every embedded migration newer than the last recorded one.
func RunMigrations(ctx context.Context, db *sql.DB, dialect string) error {
	migrationFiles, err := getMigrationFiles(migrationFS)
	if err != nil {
		return fmt.Errorf("failed to get migration files: %w", err)
	}

	lastAppliedMigration, err := getLastAppliedMigration(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration name: %w", err)
	}

	newMigrations := filterNewMigrations(migrationFiles, lastAppliedMigration)
	if len(newMigrations) == 0 {
		logging.Logger.Info("no new migration")
		return nil
	}

	for _, migrationFile := range newMigrations {
		logging.Logger.Info("applying migration: ", migrationFile)
		migrationContent, err := fs.ReadFile(migrationFS, "migrations/"+migrationFile)
		if err != nil {
			return fmt.Errorf("failed to read this '%s' migration file, error: %w", migrationFile, err)
		}
		if err := applyMigration(ctx, db, dialect, migrationFile, string(migrationContent)); err != nil {
			return fmt.Errorf("failed to apply this '%s' migration file, error: %w", migrationFile, err)
		}
	}

	logging.Logger.Info("all migrations applied successfully")
	return nil
}

func getMigrationFiles(fsys fs.FS) ([]string, error) {
	files, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, err
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	return migrationFiles, nil
}

func getLastAppliedMigration(ctx context.Context, db *sql.DB) (string, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migration (
        migration_name VARCHAR(255) PRIMARY KEY,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return "", err
	}

	var lastMigration string
	err = db.QueryRowContext(ctx, "SELECT migration_name FROM migration ORDER BY migration_name DESC LIMIT 1").Scan(&lastMigration)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return lastMigration, err
}

func filterNewMigrations(all []string, lastApplied string) []string {
	if lastApplied == "" {
		return all
	}

	var result []string
	for _, migration := range all {
		if migration > lastApplied {
			result = append(result, migration)
		}
	}
	return result
}

func applyMigration(ctx context.Context, db *sql.DB, dialect, name, sqlContent string) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	statements := strings.Split(sqlContent, ";")
	for _, statement := range statements {
		trimmedStmt := strings.TrimSpace(statement)
		if trimmedStmt == "" {
			continue
		}
		if _, err := txn.ExecContext(ctx, trimmedStmt); err != nil {
			txn.Rollback()
			return fmt.Errorf("migration statement failed: %w\nStatement: %s", err, trimmedStmt)
		}
	}

	if _, err := txn.ExecContext(ctx, rebind(dialect, "INSERT INTO migration (migration_name) VALUES (?)"), name); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to record migration name: %w", err)
	}
	return txn.Commit()
}
