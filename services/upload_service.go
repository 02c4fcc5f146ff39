package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fileshare/logger"
	"fileshare/models"
	"fileshare/utils"
)

// UploadPinThreshold 이 크기(bytes)를 넘는 파일은 업로드 PIN이 필요하다.
const UploadPinThreshold = 5_000_000

var uploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fileshare_uploads_total",
		Help: "Upload requests by outcome",
	},
	[]string{"outcome"},
)

// UploadStatus 업로드 결과 종류
type UploadStatus int

const (
	UploadCreated UploadStatus = iota
	UploadExisting
)

// UploadRequest 멀티파트 파싱이 끝난 업로드 입력
// 길이 제한은 files 테이블의 original_name VARCHAR(255), encoding VARCHAR(50) 컬럼 폭과 같다.
type UploadRequest struct {
	HasFile      bool
	OriginalName string `validate:"max=255"`
	Size         int64  `validate:"gte=0"`
	Encoding     string `validate:"max=50"`
	MimeType     string
	Content      []byte
	Password     string
	UploadPin    string
}

// UploadOutcome 업로드 처리 결과
type UploadOutcome struct {
	Status  UploadStatus
	Message string
	Record  models.FileRecord
	// LongURL 항상 정식 긴 링크
	LongURL string
	// Link 저장된 공유 링크 (운영 모드면 단축 URL)
	Link string
}

// UploadService는 업로드 정책(PIN, 중복 이름, 링크 생성)을 담당합니다.
type UploadService struct {
	store     FileStore
	links     LinkStrategy
	origin    string
	uploadPin string
	validate  *validator.Validate
}

// NewUploadService 업로드 서비스 생성. links는 시작 시 한 번 결정된다.
func NewUploadService(store FileStore, links LinkStrategy, origin, uploadPin string) *UploadService {
	return &UploadService{
		store:     store,
		links:     links,
		origin:    origin,
		uploadPin: uploadPin,
		validate:  validator.New(),
	}
}

// Upload 업로드 요청을 검증하고 새 레코드를 만들거나 기존 레코드를 돌려준다.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (UploadOutcome, error) {
	if !req.HasFile {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return UploadOutcome{}, validationError(MsgNoFile)
	}
	if err := s.validate.Struct(req); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		logger.WithFields(map[string]interface{}{"error": err.Error()}).Debug("Upload rejected by validator")
		return UploadOutcome{}, validationError(uploadValidationMessage(err))
	}

	if err := s.checkUploadPin(req); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return UploadOutcome{}, err
	}

	existing, err := s.store.FindByOriginalName(ctx, req.OriginalName)
	switch {
	case err == nil:
		uploadsTotal.WithLabelValues("existing").Inc()
		return s.existingOutcome(existing), nil
	case !errors.Is(err, ErrNotFound):
		return UploadOutcome{}, err
	}

	record := models.FileRecord{
		ID:           utils.GenerateID(),
		OriginalName: req.OriginalName,
		Size:         req.Size,
		Encoding:     req.Encoding,
		MimeType:     req.MimeType,
		CreatedAt:    utils.NowUTC(),
	}
	if record.Encoding == "" {
		record.Encoding = "7bit"
	}
	if record.MimeType == "" || record.MimeType == "application/octet-stream" {
		record.MimeType = mimetype.Detect(req.Content).String()
	}

	longURL := FileURL(s.origin, record.ID)
	link, err := s.links.Assign(ctx, &record, longURL)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("failed to generate link: %w", err)
	}

	if err := s.store.Create(ctx, &record, req.Password, req.Content); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			// 동시 업로드가 먼저 저장했다. UNIQUE 위반을 중복 신호로 쓴다.
			existing, findErr := s.store.FindByOriginalName(ctx, req.OriginalName)
			if findErr != nil {
				return UploadOutcome{}, findErr
			}
			uploadsTotal.WithLabelValues("existing").Inc()
			return s.existingOutcome(existing), nil
		}
		return UploadOutcome{}, err
	}

	uploadsTotal.WithLabelValues("created").Inc()
	logger.WithFields(map[string]interface{}{
		"file_id":   record.ID,
		"size":      record.Size,
		"protected": record.Protected,
		"links":     s.links.Name(),
	}).Info("File uploaded")

	return UploadOutcome{
		Status:  UploadCreated,
		Message: "Your file is uploaded",
		Record:  record,
		LongURL: longURL,
		Link:    link,
	}, nil
}

// checkUploadPin PIN 누락과 불일치는 같은 메시지로 거부한다.
func (s *UploadService) checkUploadPin(req UploadRequest) error {
	if req.Size <= UploadPinThreshold {
		return nil
	}
	if req.UploadPin == "" {
		return authorizationError(MsgUploadPinRequired)
	}
	if s.uploadPin == "" || !utils.SecretEquals(req.UploadPin, s.uploadPin) {
		return authorizationError(MsgUploadPinRequired)
	}
	return nil
}

func (s *UploadService) existingOutcome(record models.FileRecord) UploadOutcome {
	return UploadOutcome{
		Status:  UploadExisting,
		Message: fmt.Sprintf("File with name %s already exists", record.OriginalName),
		Record:  record,
		LongURL: FileURL(s.origin, record.ID),
		Link:    record.Link(),
	}
}

// uploadValidationMessage 검증 실패를 사용자용 고정 메시지로 바꾼다. validator 내부 문구는 내보내지 않는다.
func uploadValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "OriginalName" {
				return MsgFileNameTooLong
			}
		}
	}
	return MsgInvalidUpload
}
