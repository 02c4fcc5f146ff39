package utils

import (
	"fmt"
	"time"
)

const dbDateTimeLayout = time.RFC3339Nano

// NowUTC 저장용 현재 시각
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatDateTimeForDB created_at 컬럼용 문자열
func FormatDateTimeForDB(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dbDateTimeLayout)
}

// ParseDBDate DB에서 읽은 시각 문자열 파싱
func ParseDBDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	if ts, err := time.Parse(dbDateTimeLayout, value); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.UTC); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unsupported db time format: %s", value)
}
