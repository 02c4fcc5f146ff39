package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"fileshare/models"
)

var shortenerRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fileshare_shortener_requests_total",
		Help: "Calls to the external URL shortening service",
	},
	[]string{"result"},
)

// LinkStrategy는 새 레코드의 공개 링크를 정하고 레코드의 ShortURL/LongURL 중 하나만 채웁니다.
type LinkStrategy interface {
	Name() string
	Assign(ctx context.Context, record *models.FileRecord, longURL string) (string, error)
}

// FileURL 파일의 정식 긴 링크
func FileURL(origin, id string) string {
	return strings.TrimRight(origin, "/") + "/api/v2/file/" + id
}

// DirectLink 로컬 모드: 긴 링크를 그대로 쓴다.
type DirectLink struct{}

func (DirectLink) Name() string { return "direct" }

func (DirectLink) Assign(_ context.Context, record *models.FileRecord, longURL string) (string, error) {
	record.ShortURL = nil
	record.LongURL = lo.ToPtr(longURL)
	return longURL, nil
}

// ShortenedLink 운영 모드: 외부 단축 URL 서비스를 호출한다.
type ShortenedLink struct {
	endpoint    string
	accessToken string
	domain      string
	client      *http.Client
}

// NewShortenedLink 단축 서비스 클라이언트 생성
func NewShortenedLink(endpoint, accessToken, domain string, timeout time.Duration) *ShortenedLink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ShortenedLink{
		endpoint:    endpoint,
		accessToken: accessToken,
		domain:      domain,
		client:      &http.Client{Timeout: timeout},
	}
}

func (s *ShortenedLink) Name() string { return "shortened" }

type shortenRequest struct {
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
}

type shortenResponse struct {
	Code int `json:"code"`
	Data struct {
		TinyURL string `json:"tiny_url"`
	} `json:"data"`
	Errors []string `json:"errors"`
}

func (s *ShortenedLink) Assign(ctx context.Context, record *models.FileRecord, longURL string) (string, error) {
	short, err := s.Shorten(ctx, longURL)
	if err != nil {
		return "", err
	}
	record.LongURL = nil
	record.ShortURL = lo.ToPtr(short)
	return short, nil
}

// Shorten 긴 URL을 단축 URL로 바꾼다.
func (s *ShortenedLink) Shorten(ctx context.Context, longURL string) (string, error) {
	body, err := json.Marshal(shortenRequest{URL: longURL, Domain: s.domain})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrShortenerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		shortenerRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", ErrShortenerUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		shortenerRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: status %d: %s", ErrShortenerUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed shortenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		shortenerRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: invalid response: %v", ErrShortenerUnavailable, err)
	}
	if parsed.Data.TinyURL == "" {
		shortenerRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: empty short url (%s)", ErrShortenerUnavailable, strings.Join(parsed.Errors, "; "))
	}

	shortenerRequestsTotal.WithLabelValues("ok").Inc()
	return parsed.Data.TinyURL, nil
}
