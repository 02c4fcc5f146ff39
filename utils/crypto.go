package utils

import (
	"crypto/subtle"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GenerateID 파일 ID 생성 (UUID v4)
func GenerateID() string {
	return uuid.NewString()
}

// IsValidID 경로에서 받은 ID가 UUID 형식인지 확인
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// HashPassword 비밀번호 해싱
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword 비밀번호 검증. 평문 비교는 하지 않는다.
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// SecretEquals 공유 PIN 같은 비밀값을 상수 시간으로 비교한다.
func SecretEquals(given, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
