package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"fileshare/logger"
	"fileshare/models"
	"fileshare/services"
)

// FileRoutePrefix 파일 API 경로 접두사
const FileRoutePrefix = "/api/v2/file/"

// multipart 본문 중 메모리에 유지하는 최대 크기. 넘치면 임시 파일로 간다.
const multipartMemory = 32 << 20

// CleanupQueue 다운로드가 끝난 스테이징 디렉터리를 지연 삭제한다.
type CleanupQueue interface {
	Schedule(path string)
}

// FileHandler는 파일 공유 HTTP 요청을 처리한다.
type FileHandler struct {
	uploads       *services.UploadService
	downloads     *services.DownloadService
	details       *services.DetailsCache
	maintenance   *services.MaintenanceService
	cleanup       CleanupQueue
	maxUploadSize int64
}

// NewFileHandler는 파일 핸들러를 생성한다.
func NewFileHandler(
	uploads *services.UploadService,
	downloads *services.DownloadService,
	details *services.DetailsCache,
	maintenance *services.MaintenanceService,
	cleanup CleanupQueue,
	maxUploadSize int64,
) *FileHandler {
	return &FileHandler{
		uploads:       uploads,
		downloads:     downloads,
		details:       details,
		maintenance:   maintenance,
		cleanup:       cleanup,
		maxUploadSize: maxUploadSize,
	}
}

// Route /api/v2/file/ 하위 경로를 메서드와 경로로 분기한다.
func (h *FileHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, FileRoutePrefix)

	switch {
	case rest == "upload" && r.Method == http.MethodPost:
		h.Upload(w, r)
	case rest == "details" && r.Method == http.MethodGet:
		h.Details(w, r)
	case rest == "clear-uploads" && (r.Method == http.MethodGet || r.Method == http.MethodDelete):
		h.ClearUploads(w, r)
	case r.Method == http.MethodGet:
		h.Download(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, models.Message("Method not allowed"))
	}
}

// Upload 파일 업로드
// @Summary 파일 업로드
// @Description 파일을 업로드하고 공유 링크를 발급합니다. 5MB를 넘는 파일은 업로드 PIN이 필요합니다.
// @Description 같은 이름의 파일이 이미 있으면 새로 저장하지 않고 기존 링크를 돌려줍니다.
// @Tags 파일
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "업로드할 파일"
// @Param password formData string false "다운로드 비밀번호"
// @Param uploadPin formData string false "업로드 PIN (5MB 초과 시 필수)"
// @Success 201 {object} models.UploadResponse "업로드 성공"
// @Success 200 {object} models.DuplicateResponse "같은 이름의 파일이 이미 있음"
// @Failure 400 {object} models.MessageResponse "파일 없음 또는 PIN 오류"
// @Failure 413 {object} models.MessageResponse "파일이 너무 큼"
// @Failure 500 {object} models.MessageResponse "서버 에러"
// @Router /api/v2/file/upload [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseUpload(w, r)
	if err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, models.Message("File is too large"))
			return
		}
		logger.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Invalid multipart upload")
		writeJSON(w, http.StatusBadRequest, models.Message("Invalid multipart form"))
		return
	}

	outcome, err := h.uploads.Upload(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to upload file")
		return
	}

	if outcome.Status == services.UploadExisting {
		writeJSON(w, http.StatusOK, models.DuplicateResponse{
			Message:  outcome.Message,
			LongURL:  outcome.LongURL,
			ShortURL: outcome.Link,
		})
		return
	}

	writeJSON(w, http.StatusCreated, models.UploadResponse{
		Message:   outcome.Message,
		LongURL:   outcome.LongURL,
		ShortURL:  outcome.Link,
		Protected: outcome.Record.Protected,
	})
}

// parseUpload multipart 본문에서 파일과 폼 값을 꺼낸다. 파일이 없으면 HasFile=false로 돌려준다.
func (h *FileHandler) parseUpload(w http.ResponseWriter, r *http.Request) (services.UploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return services.UploadRequest{}, nil
		}
		return services.UploadRequest{}, err
	}

	req := services.UploadRequest{
		Password:  r.FormValue("password"),
		UploadPin: r.FormValue("uploadPin"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		return req, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return req, err
	}

	req.HasFile = true
	req.OriginalName = header.Filename
	req.Size = int64(len(content))
	req.Encoding = header.Header.Get("Content-Transfer-Encoding")
	req.MimeType = header.Header.Get("Content-Type")
	req.Content = content
	return req, nil
}

// Download 파일 다운로드
// @Summary 파일 다운로드
// @Description 파일을 내려받고 다운로드 횟수를 1 올립니다. 보호된 파일은 password 쿼리가 필요합니다.
// @Tags 파일
// @Produce octet-stream
// @Param id path string true "파일 ID"
// @Param password query string false "다운로드 비밀번호"
// @Success 200 "파일 스트림"
// @Failure 400 {object} models.MessageResponse "파일 없음 또는 비밀번호 오류"
// @Failure 500 {object} models.MessageResponse "서버 에러"
// @Router /api/v2/file/{id} [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimPrefix(r.URL.Path, FileRoutePrefix)

	record, err := h.downloads.Resolve(ctx, id)
	if err != nil {
		writeServiceError(w, err, "Failed to load file")
		return
	}

	query := r.URL.Query()
	if err := h.downloads.Authorize(record, query.Get("password"), query.Has("password")); err != nil {
		writeServiceError(w, err, "Failed to authorize download")
		return
	}

	staged, err := h.downloads.Stage(ctx, record)
	if err != nil {
		writeServiceError(w, err, "Failed to stage file")
		return
	}
	defer h.cleanup.Schedule(staged.Dir)

	if _, err := h.downloads.RecordDownload(ctx, record); err != nil {
		writeServiceError(w, err, "Failed to record download")
		return
	}

	f, err := os.Open(staged.Path)
	if err != nil {
		writeServiceError(w, err, "Failed to open staged file")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeServiceError(w, err, "Failed to stat staged file")
		return
	}

	encodedName := url.PathEscape(record.OriginalName)
	disposition := fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", sanitizeFilename(record.OriginalName), encodedName)
	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	w.Header().Set("Content-Disposition", disposition)

	http.ServeContent(w, r, record.OriginalName, stat.ModTime(), f)
}

// Details 파일 상세 조회
// @Summary 파일 상세 조회
// @Description 비밀번호 해시와 내용을 제외한 파일 정보를 반환합니다.
// @Tags 파일
// @Produce json
// @Param id query string true "파일 ID"
// @Success 200 {object} models.DetailsResponse "조회 성공"
// @Failure 400 {object} models.MessageResponse "ID 누락 또는 파일 없음"
// @Failure 500 {object} models.MessageResponse "서버 에러"
// @Router /api/v2/file/details [get]
func (h *FileHandler) Details(w http.ResponseWriter, r *http.Request) {
	details, err := h.details.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to load file details")
		return
	}
	writeJSON(w, http.StatusOK, models.DetailsResponse{FileDetails: details})
}

// ClearUploads 스테이징 디렉터리 삭제
// @Summary 스테이징 디렉터리 삭제
// @Description 다운로드용 스테이징 디렉터리를 통째로 지웁니다. 결과는 항상 200으로 메시지에 담깁니다.
// @Tags 유지보수
// @Produce json
// @Success 200 {object} models.MessageResponse "처리 결과"
// @Router /api/v2/file/clear-uploads [get]
// @Router /api/v2/file/clear-uploads [delete]
func (h *FileHandler) ClearUploads(w http.ResponseWriter, r *http.Request) {
	result := h.maintenance.ClearStaging()
	writeJSON(w, http.StatusOK, models.Message(result.Message()))
}

// writeServiceError 요청 오류는 400 {message}, 나머지는 로그를 남기고 500으로 응답한다.
func writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	if reqErr, ok := services.AsRequestError(err); ok {
		writeJSON(w, http.StatusBadRequest, models.Message(reqErr.Message))
		return
	}

	logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("%s", logMsg)
	writeJSON(w, http.StatusInternalServerError, models.Message("Internal server error"))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// isBodyTooLarge multipart 파서가 MaxBytesError를 감싸지 않고 돌려주는 경우도 있다.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "\\", "")
	return name
}
