package services

import "errors"

var (
	// ErrValidation 필수 값(파일, 비밀번호, ID)이 빠졌을 때
	ErrValidation = errors.New("validation error")
	// ErrAuthorization PIN 또는 파일 비밀번호가 없거나 틀렸을 때
	ErrAuthorization = errors.New("authorization error")
	// ErrNotFound 요청한 ID의 파일이 없을 때
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName strict 모드에서 같은 이름의 레코드가 이미 있을 때 스토어가 반환한다
	ErrDuplicateName = errors.New("file name already exists")
	// ErrShortenerUnavailable 단축 URL 서비스 호출 실패
	ErrShortenerUnavailable = errors.New("url shortener unavailable")
)

// 사용자에게 그대로 내려가는 메시지
const (
	MsgNoFile            = "No file found. Please upload a file"
	MsgUploadPinRequired = "Upload PIN required for files larger than 5Mb"
	MsgPasswordRequired  = "Password is required to download this file"
	MsgPasswordIncorrect = "Password is incorrect"
	MsgFileIDRequired    = "Please provide file id"
	MsgFileNotFound      = "File does not exists"
	MsgFileNameTooLong   = "File name is too long (max 255 characters)"
	MsgInvalidUpload     = "Invalid upload"
)

// RequestError 요청 단위로 처리되는 오류. Kind는 위 sentinel 중 하나다.
type RequestError struct {
	Kind    error
	Message string
}

func (e *RequestError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

func validationError(msg string) error    { return &RequestError{Kind: ErrValidation, Message: msg} }
func authorizationError(msg string) error { return &RequestError{Kind: ErrAuthorization, Message: msg} }
func notFoundError(msg string) error      { return &RequestError{Kind: ErrNotFound, Message: msg} }

// AsRequestError 요청 오류면 사용자 메시지를 꺼낸다.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
