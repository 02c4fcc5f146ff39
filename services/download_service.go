package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fileshare/logger"
	"fileshare/models"
	"fileshare/utils"
)

var downloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fileshare_downloads_total",
		Help: "Download requests by outcome",
	},
	[]string{"outcome"},
)

// StagedFile 다운로드를 위해 스테이징 디렉터리에 풀어 놓은 파일
type StagedFile struct {
	// Dir 이 다운로드 전용 디렉터리 (파일 단위 정리 대상)
	Dir  string
	Path string
	Name string
}

// DownloadService는 다운로드 비밀번호 검사, 카운터, 스테이징을 담당합니다.
type DownloadService struct {
	store      FileStore
	cache      *DetailsCache
	stagingDir string
}

// NewDownloadService 다운로드 서비스 생성. cache는 nil이어도 된다.
func NewDownloadService(store FileStore, cache *DetailsCache, stagingDir string) *DownloadService {
	return &DownloadService{store: store, cache: cache, stagingDir: stagingDir}
}

// Resolve ID로 레코드를 찾는다.
func (s *DownloadService) Resolve(ctx context.Context, id string) (models.FileRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.FileRecord{}, validationError(MsgFileIDRequired)
	}
	if !utils.IsValidID(id) {
		return models.FileRecord{}, notFoundError(MsgFileNotFound)
	}
	return s.store.FindByID(ctx, id)
}

// Authorize 보호된 파일이면 비밀번호를 해시 비교한다. 실패해도 아무 상태도 바꾸지 않는다.
func (s *DownloadService) Authorize(record models.FileRecord, password string, present bool) error {
	if record.PasswordHash == nil {
		return nil
	}
	if !present {
		downloadsTotal.WithLabelValues("password_missing").Inc()
		return validationError(MsgPasswordRequired)
	}
	if !utils.CheckPassword(*record.PasswordHash, password) {
		downloadsTotal.WithLabelValues("password_incorrect").Inc()
		return authorizationError(MsgPasswordIncorrect)
	}
	return nil
}

// Stage 저장된 내용을 <staging>/<id>-<임의값>/<원본 이름>으로 기록한다. 디렉터리는 호출마다 새로 만든다.
func (s *DownloadService) Stage(ctx context.Context, record models.FileRecord) (StagedFile, error) {
	content, err := s.store.LoadContent(ctx, record.ID)
	if err != nil {
		return StagedFile{}, err
	}

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return StagedFile{}, fmt.Errorf("failed to prepare staging directory: %w", err)
	}
	// 같은 파일을 동시에 받는 요청끼리 경로를 공유하지 않도록 다운로드마다 새 디렉터리를 쓴다.
	dir, err := os.MkdirTemp(s.stagingDir, record.ID+"-*")
	if err != nil {
		return StagedFile{}, fmt.Errorf("failed to prepare staging directory: %w", err)
	}

	name := stagedFileName(record)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		os.RemoveAll(dir)
		return StagedFile{}, fmt.Errorf("failed to stage file: %w", err)
	}

	return StagedFile{Dir: dir, Path: path, Name: record.OriginalName}, nil
}

// RecordDownload 카운터를 1 올리고 저장한다. 새 값을 돌려준다.
func (s *DownloadService) RecordDownload(ctx context.Context, record models.FileRecord) (int64, error) {
	count, err := s.store.IncrementDownloadCount(ctx, record.ID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Invalidate(record.ID)
	}

	downloadsTotal.WithLabelValues("served").Inc()
	logger.WithFields(map[string]interface{}{
		"file_id":        record.ID,
		"download_count": count,
	}).Debug("Download recorded")
	return count, nil
}

func stagedFileName(record models.FileRecord) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(record.OriginalName, "\\", "/")))
	if name == "/" || name == "." || name == "" {
		return record.ID
	}
	return name
}
