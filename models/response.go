package models

// MessageResponse 오류 및 단순 상태 응답 ({message})
type MessageResponse struct {
	Message string `json:"message"`
}

// UploadResponse 새 파일 업로드 성공 응답 (201)
type UploadResponse struct {
	Message   string `json:"message"`
	LongURL   string `json:"longurl"`
	ShortURL  string `json:"shortUrl"`
	Protected bool   `json:"protected"`
}

// DuplicateResponse 같은 이름의 파일이 이미 있을 때 응답 (200)
type DuplicateResponse struct {
	Message  string `json:"message"`
	LongURL  string `json:"longurl"`
	ShortURL string `json:"shortUrl"`
}

// DetailsResponse 파일 상세 응답
type DetailsResponse struct {
	FileDetails FileDetails `json:"fileDetails"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// Message {message} 응답 생성
func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}
