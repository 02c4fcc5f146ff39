package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"

	"fileshare/logger"
	"fileshare/models"
)

type contextKey string

// RequestIDKey 요청 ID가 저장되는 context 키
const RequestIDKey contextKey = "request_id"

var newRequestID = mustRequestIDGenerator()

func mustRequestIDGenerator() func() string {
	gen, err := nanoid.Standard(16)
	if err != nil {
		panic(err)
	}
	return gen
}

// responseWriter HTTP 응답을 캡처하기 위한 래퍼
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// RequestID context에서 요청 ID를 꺼낸다.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// LoggingMiddleware HTTP 요청/응답 로깅 미들웨어
func LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// 요청 ID 생성 (추적용)
		requestID := newRequestID()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		rw.Header().Set("X-Request-ID", requestID)

		// 비밀번호가 쿼리에 실릴 수 있어 쿼리 문자열은 남기지 않는다.
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"ip":         getClientIP(r),
			"user_agent": r.UserAgent(),
		}).Info("HTTP Request")

		next.ServeHTTP(rw, r.WithContext(ctx))

		duration := time.Since(start)

		logger.WithFields(map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"size":        rw.written,
		}).Log(getLogLevelForStatus(rw.statusCode), "HTTP Response")
	}
}

// getLogLevelForStatus 상태 코드에 따른 로그 레벨 결정
func getLogLevelForStatus(statusCode int) logger.LogLevel {
	switch {
	case statusCode >= 500:
		return logger.ERROR
	case statusCode >= 400:
		return logger.WARN
	default:
		return logger.INFO
	}
}

// getClientIP 클라이언트 IP 추출
func getClientIP(r *http.Request) string {
	// X-Forwarded-For 헤더 확인 (프록시 환경)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// RecoverMiddleware 핸들러 panic을 500 {message}로 바꾼다.
func RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithFields(map[string]interface{}{
					"request_id": RequestID(r.Context()),
					"panic":      rec,
					"stack":      string(debug.Stack()),
				}).Error("Handler panicked")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(models.Message("Internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	}
}

// SetJSONHeader JSON 헤더 설정 미들웨어
func SetJSONHeader(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	}
}

// CORSMiddleware CORS 설정 미들웨어
func CORSMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// ChainMiddleware 미들웨어 체인
func ChainMiddleware(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
