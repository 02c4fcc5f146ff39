package models

import "time"

// FileRecord 업로드된 파일 한 건의 메타데이터
type FileRecord struct {
	ID            string
	OriginalName  string
	Size          int64
	Encoding      string
	MimeType      string
	Protected     bool
	PasswordHash  *string
	ShortURL      *string
	LongURL       *string
	DownloadCount int64
	CreatedAt     time.Time
}

// Link 저장된 공유 링크. 운영 모드면 단축 URL, 아니면 긴 URL이다.
func (f FileRecord) Link() string {
	if f.ShortURL != nil {
		return *f.ShortURL
	}
	if f.LongURL != nil {
		return *f.LongURL
	}
	return ""
}

// FileDetails 상세 조회용 축소 프로젝션 (비밀번호, 이름, 링크 제외)
type FileDetails struct {
	ID            string    `json:"_id"`
	Protected     bool      `json:"protected"`
	Encoding      string    `json:"encoding"`
	Size          int64     `json:"size"`
	DownloadCount int64     `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
