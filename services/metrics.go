package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fileshare/logger"
)

// fileCountTimeout 스크레이프 한 번에 COUNT 쿼리가 쓸 수 있는 시간
const fileCountTimeout = 2 * time.Second

// NewFileCountGauge 저장된 파일 수를 스크레이프 시점에 읽는 게이지. 등록은 호출자가 한다.
func NewFileCountGauge(store FileStore) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fileshare_files_stored",
			Help: "Number of file records in the database",
		},
		func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), fileCountTimeout)
			defer cancel()

			n, err := store.Count(ctx)
			if err != nil {
				logger.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Failed to count stored files")
				return 0
			}
			return float64(n)
		},
	)
}
