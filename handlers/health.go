package handlers

import (
	"context"
	"net/http"
	"time"

	"fileshare/logger"
	"fileshare/models"
)

// Version 서버 버전
const Version = "2.0.0"

// Pinger DB 연결 확인
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler는 헬스체크 요청을 처리한다.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health 헬스체크
// @Summary 헬스체크
// @Description 서버와 데이터베이스 상태를 확인합니다.
// @Tags 시스템
// @Produce json
// @Success 200 {object} models.HealthResponse "정상"
// @Failure 503 {object} models.HealthResponse "데이터베이스 연결 불가"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Status:  "error",
			Message: "Database unavailable",
			Version: Version,
		})
		return
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "success",
		Message: "Server is healthy",
		Version: Version,
	})
}
