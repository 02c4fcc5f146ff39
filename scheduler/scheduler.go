package scheduler

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fileshare/logger"
)

// Scope 다운로드 후 정리 범위
type Scope string

const (
	// ScopeFile 다운로드한 파일의 스테이징 디렉터리만 지운다.
	ScopeFile Scope = "file"
	// ScopeGlobal 스테이징 디렉터리 전체를 지운다. 동시 다운로드와 경합할 수 있다.
	ScopeGlobal Scope = "global"
)

var cleanupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fileshare_staging_cleanups_total",
		Help: "Staging cleanup tasks by result",
	},
	[]string{"result"},
)

// CleanupScheduler 지연 정리 작업 큐. 작업은 fire-and-forget이며 실패는 로그로만 남긴다.
type CleanupScheduler struct {
	stagingDir string
	delay      time.Duration
	scope      Scope

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingCleanup
	stopped bool
}

type pendingCleanup struct {
	timer  *time.Timer
	target string
}

// NewCleanupScheduler 정리 스케줄러 생성
func NewCleanupScheduler(stagingDir string, delay time.Duration, scope Scope) *CleanupScheduler {
	if scope != ScopeGlobal {
		scope = ScopeFile
	}
	return &CleanupScheduler{
		stagingDir: stagingDir,
		delay:      delay,
		scope:      scope,
		pending:    make(map[uint64]*pendingCleanup),
	}
}

// Schedule path(파일 전용 스테이징 디렉터리)를 delay 후 지운다.
// ScopeGlobal이면 path와 무관하게 스테이징 디렉터리 전체를 지운다.
func (s *CleanupScheduler) Schedule(path string) {
	target := path
	if s.scope == ScopeGlobal || target == "" {
		target = s.stagingDir
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	id := s.nextID
	s.nextID++
	s.pending[id] = &pendingCleanup{
		target: target,
		timer: time.AfterFunc(s.delay, func() {
			s.mu.Lock()
			delete(s.pending, id)
			s.mu.Unlock()
			s.remove(target)
		}),
	}
}

// Pending 아직 실행되지 않은 작업 수
func (s *CleanupScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush 대기 중인 작업을 지금 실행하고 이후 예약을 막는다. 종료 시 호출한다.
func (s *CleanupScheduler) Flush() {
	s.mu.Lock()
	s.stopped = true
	targets := make([]string, 0, len(s.pending))
	for id, p := range s.pending {
		if p.timer.Stop() {
			targets = append(targets, p.target)
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, target := range targets {
		s.remove(target)
	}
}

// Stop 대기 중인 작업을 취소한다.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

func (s *CleanupScheduler) remove(target string) {
	if err := os.RemoveAll(target); err != nil {
		cleanupsTotal.WithLabelValues("error").Inc()
		logger.WithFields(map[string]interface{}{
			"target": target,
			"error":  err.Error(),
		}).Warn("Staging cleanup failed")
		return
	}
	cleanupsTotal.WithLabelValues("ok").Inc()
	logger.WithFields(map[string]interface{}{
		"target": target,
		"scope":  string(s.scope),
	}).Debug("Staging cleanup done")
}

// StartSweeper 타이머가 재시작 등으로 유실된 경우를 위해 maxAge보다 오래된 스테이징 항목을 주기적으로 지운다.
// 반환된 함수로 중지한다.
// interval이나 maxAge가 0 이하이면 스위퍼를 띄우지 않는다.
func StartSweeper(stagingDir string, interval, maxAge time.Duration) (stop func()) {
	if interval <= 0 || maxAge <= 0 {
		logger.Warn("Staging sweeper disabled (interval %s, max age %s)", interval, maxAge)
		return func() {}
	}

	logger.Info("Staging sweeper started (every %s, max age %s)", interval, maxAge)

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	SweepStaleEntries(stagingDir, maxAge)

	go func() {
		for {
			select {
			case <-ticker.C:
				SweepStaleEntries(stagingDir, maxAge)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// SweepStaleEntries 스테이징 디렉터리에서 maxAge보다 오래된 항목을 지우고 개수를 반환한다.
func SweepStaleEntries(stagingDir string, maxAge time.Duration) int {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Failed to read staging directory")
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < maxAge {
			continue
		}
		if err := os.RemoveAll(filepath.Join(stagingDir, entry.Name())); err != nil {
			cleanupsTotal.WithLabelValues("error").Inc()
			continue
		}
		removed++
	}

	if removed > 0 {
		cleanupsTotal.WithLabelValues("swept").Add(float64(removed))
		logger.WithFields(map[string]interface{}{"count": removed}).Info("Stale staging entries removed")
	}
	return removed
}
