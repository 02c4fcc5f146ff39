package services

import (
	"errors"
	"io/fs"
	"os"

	"fileshare/logger"
)

// ClearResult 스테이징 디렉터리 삭제 결과
type ClearResult int

const (
	ClearDeleted ClearResult = iota
	ClearAbsent
	ClearFailed
)

// Message 사용자에게 보여줄 상태 메시지
func (r ClearResult) Message() string {
	switch r {
	case ClearDeleted:
		return "Uploads folder deleted"
	case ClearAbsent:
		return "Uploads folder does not exists"
	default:
		return "Error while deleting uploads folder"
	}
}

// MaintenanceService 스테이징 디렉터리 정리
type MaintenanceService struct {
	stagingDir string
}

func NewMaintenanceService(stagingDir string) *MaintenanceService {
	return &MaintenanceService{stagingDir: stagingDir}
}

// ClearStaging 스테이징 디렉터리를 통째로 지운다. 여러 번 호출해도 안전하다.
func (m *MaintenanceService) ClearStaging() ClearResult {
	if _, err := os.Stat(m.stagingDir); errors.Is(err, fs.ErrNotExist) {
		return ClearAbsent
	}

	if err := os.RemoveAll(m.stagingDir); err != nil {
		logger.WithFields(map[string]interface{}{
			"dir":   m.stagingDir,
			"error": err.Error(),
		}).Error("Failed to clear staging directory")
		return ClearFailed
	}

	logger.WithFields(map[string]interface{}{"dir": m.stagingDir}).Info("Staging directory cleared")
	return ClearDeleted
}
