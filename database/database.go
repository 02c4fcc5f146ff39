package database

import (
	"database/sql"
	"fmt"

	"fileshare/logger"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Options 데이터베이스 연결 옵션
type Options struct {
	// "sqlite" 또는 "mysql"
	Type string
	// SQLite 파일 경로 또는 MySQL DSN
	DSN string
	// original_name에 UNIQUE 인덱스를 건다
	StrictUniqueNames bool
}

// Initialize 전역 DB를 연결하고 스키마를 준비한다.
func Initialize(opts Options) error {
	db, err := Open(opts)
	if err != nil {
		return err
	}
	DB = db
	logger.WithFields(map[string]interface{}{
		"type":   opts.Type,
		"strict": opts.StrictUniqueNames,
	}).Info("Database initialized successfully")
	return nil
}

// Open 새 연결을 열고 테이블을 만든다. 테스트는 전역 DB 대신 이것을 쓴다.
func Open(opts Options) (*sql.DB, error) {
	if opts.Type == "" {
		opts.Type = "sqlite"
	}
	if opts.DSN == "" && opts.Type == "sqlite" {
		opts.DSN = "./fileshare.db"
	}

	db, err := sql.Open(opts.Type, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Type == "sqlite" {
		// SQLite는 동시 쓰기를 지원하지 않는다
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB, opts Options) error {
	var statements []string

	switch opts.Type {
	case "mysql":
		statements = append(statements, `CREATE TABLE IF NOT EXISTS files (
			id VARCHAR(50) PRIMARY KEY,
			original_name VARCHAR(255) NOT NULL,
			size BIGINT NOT NULL,
			encoding VARCHAR(50) NOT NULL DEFAULT '7bit',
			mime_type VARCHAR(255) NOT NULL DEFAULT 'application/octet-stream',
			protected TINYINT(1) NOT NULL DEFAULT 0,
			password_hash VARCHAR(255) NULL,
			short_url VARCHAR(512) NULL,
			long_url VARCHAR(512) NULL,
			download_count BIGINT NOT NULL DEFAULT 0,
			content LONGBLOB NOT NULL,
			created_at VARCHAR(50) NOT NULL,
			INDEX idx_files_original_name (original_name)
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`)
	default:
		statements = append(statements,
			`CREATE TABLE IF NOT EXISTS files (
				id TEXT PRIMARY KEY,
				original_name TEXT NOT NULL,
				size INTEGER NOT NULL,
				encoding TEXT NOT NULL DEFAULT '7bit',
				mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
				protected INTEGER NOT NULL DEFAULT 0,
				password_hash TEXT,
				short_url TEXT,
				long_url TEXT,
				download_count INTEGER NOT NULL DEFAULT 0,
				content BLOB NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_files_original_name ON files(original_name)`,
		)
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	if opts.StrictUniqueNames {
		if err := createUniqueNameIndex(db, opts.Type); err != nil {
			return fmt.Errorf("failed to create unique name index: %w", err)
		}
	}
	return nil
}

func createUniqueNameIndex(db *sql.DB, dbType string) error {
	if dbType == "mysql" {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = 'files' AND index_name = 'uq_files_original_name'`).Scan(&count)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX uq_files_original_name ON files(original_name)`)
		return err
	}

	_, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_files_original_name ON files(original_name)`)
	return err
}

// Close 전역 DB 연결 종료
func Close() {
	if DB != nil {
		DB.Close()
		logger.Info("Database connection closed")
	}
}
