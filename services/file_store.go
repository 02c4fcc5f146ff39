package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fileshare/models"
	"fileshare/utils"
)

// FileStore는 파일 레코드와 내용을 저장하는 계층입니다.
type FileStore interface {
	// Create는 레코드를 저장한다. password가 비어 있지 않으면 해시로 바꿔 저장한다.
	Create(ctx context.Context, record *models.FileRecord, password string, content []byte) error
	FindByOriginalName(ctx context.Context, name string) (models.FileRecord, error)
	FindByID(ctx context.Context, id string) (models.FileRecord, error)
	LoadContent(ctx context.Context, id string) ([]byte, error)
	IncrementDownloadCount(ctx context.Context, id string) (int64, error)
	GetDetails(ctx context.Context, id string) (models.FileDetails, error)
	Count(ctx context.Context) (int, error)
}

type sqlFileStore struct {
	db SQLExecutor
}

// NewFileStore는 SQL 기반 FileStore를 생성합니다.
func NewFileStore(db SQLExecutor) FileStore {
	return &sqlFileStore{db: db}
}

const selectFileColumns = `SELECT id, original_name, size, encoding, mime_type, protected,
	password_hash, short_url, long_url, download_count, created_at FROM files`

func (s *sqlFileStore) Create(ctx context.Context, record *models.FileRecord, password string, content []byte) error {
	if record.ID == "" {
		record.ID = utils.GenerateID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = utils.NowUTC()
	}

	record.Protected = false
	record.PasswordHash = nil
	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		record.Protected = true
		record.PasswordHash = &hash
	}

	if content == nil {
		content = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, original_name, size, encoding, mime_type, protected,
			password_hash, short_url, long_url, download_count, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.OriginalName,
		record.Size,
		record.Encoding,
		record.MimeType,
		record.Protected,
		nullable(record.PasswordHash),
		nullable(record.ShortURL),
		nullable(record.LongURL),
		record.DownloadCount,
		content,
		utils.FormatDateTimeForDB(record.CreatedAt),
	)
	if err != nil {
		if isDuplicateNameError(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to insert file record: %w", err)
	}
	return nil
}

func (s *sqlFileStore) FindByOriginalName(ctx context.Context, name string) (models.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, selectFileColumns+` WHERE original_name = ? ORDER BY created_at ASC LIMIT 1`, name)
	return scanFileRecord(row)
}

func (s *sqlFileStore) FindByID(ctx context.Context, id string) (models.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, selectFileColumns+` WHERE id = ?`, id)
	return scanFileRecord(row)
}

func (s *sqlFileStore) LoadContent(ctx context.Context, id string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM files WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError(MsgFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file content: %w", err)
	}
	return content, nil
}

func (s *sqlFileStore) IncrementDownloadCount(ctx context.Context, id string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE files SET download_count = download_count + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update download count: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return 0, notFoundError(MsgFileNotFound)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT download_count FROM files WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read download count: %w", err)
	}
	return count, nil
}

func (s *sqlFileStore) GetDetails(ctx context.Context, id string) (models.FileDetails, error) {
	var (
		details   models.FileDetails
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, protected, encoding, size, download_count, created_at
		FROM files WHERE id = ?`, id,
	).Scan(&details.ID, &details.Protected, &details.Encoding, &details.Size, &details.DownloadCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FileDetails{}, notFoundError(MsgFileNotFound)
	}
	if err != nil {
		return models.FileDetails{}, fmt.Errorf("failed to load file details: %w", err)
	}

	details.CreatedAt, err = utils.ParseDBDate(createdAt)
	if err != nil {
		return models.FileDetails{}, err
	}
	return details, nil
}

func (s *sqlFileStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanFileRecord(row *sql.Row) (models.FileRecord, error) {
	var (
		record       models.FileRecord
		passwordHash sql.NullString
		shortURL     sql.NullString
		longURL      sql.NullString
		createdAt    string
	)

	err := row.Scan(
		&record.ID,
		&record.OriginalName,
		&record.Size,
		&record.Encoding,
		&record.MimeType,
		&record.Protected,
		&passwordHash,
		&shortURL,
		&longURL,
		&record.DownloadCount,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FileRecord{}, notFoundError(MsgFileNotFound)
	}
	if err != nil {
		return models.FileRecord{}, fmt.Errorf("failed to scan file record: %w", err)
	}

	record.PasswordHash = fromNullable(passwordHash)
	record.ShortURL = fromNullable(shortURL)
	record.LongURL = fromNullable(longURL)
	record.CreatedAt, err = utils.ParseDBDate(createdAt)
	if err != nil {
		return models.FileRecord{}, err
	}
	return record, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// isDuplicateNameError original_name UNIQUE 인덱스 위반만 잡는다. (id 충돌은 제외)
func isDuplicateNameError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	duplicate := strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "1062")
	return duplicate && strings.Contains(msg, "original_name")
}
