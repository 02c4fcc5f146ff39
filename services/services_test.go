package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare/database"
	"fileshare/models"
)

const testOrigin = "http://localhost:3000"

func newTestStore(t *testing.T, strict bool) FileStore {
	t.Helper()
	db, err := database.Open(database.Options{
		Type:              "sqlite",
		DSN:               filepath.Join(t.TempDir(), "test.db"),
		StrictUniqueNames: strict,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFileStore(NewSQLExecutor(db))
}

func countRecords(t *testing.T, store FileStore) int {
	t.Helper()
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func smallUpload(name string) UploadRequest {
	content := []byte("hello " + name)
	return UploadRequest{
		HasFile:      true,
		OriginalName: name,
		Size:         int64(len(content)),
		Encoding:     "7bit",
		Content:      content,
	}
}

func requireKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	reqErr, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, msg, reqErr.Message)
}

func TestUploadWithoutFileIsValidationError(t *testing.T) {
	store := newTestStore(t, false)
	svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")

	_, err := svc.Upload(context.Background(), UploadRequest{})
	requireKind(t, err, ErrValidation, MsgNoFile)
	assert.Equal(t, 0, countRecords(t, store))
}

func TestUploadPinThreshold(t *testing.T) {
	ctx := context.Background()

	t.Run("at threshold no pin needed", func(t *testing.T) {
		store := newTestStore(t, false)
		svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")

		req := smallUpload("edge.bin")
		req.Size = UploadPinThreshold
		out, err := svc.Upload(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, UploadCreated, out.Status)
	})

	t.Run("small file ignores wrong pin", func(t *testing.T) {
		store := newTestStore(t, false)
		svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")

		req := smallUpload("small.txt")
		req.UploadPin = "wrong"
		out, err := svc.Upload(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, UploadCreated, out.Status)
	})

	t.Run("large file missing pin", func(t *testing.T) {
		store := newTestStore(t, false)
		svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")

		req := smallUpload("big.iso")
		req.Size = UploadPinThreshold + 1
		_, err := svc.Upload(ctx, req)
		requireKind(t, err, ErrAuthorization, MsgUploadPinRequired)
		assert.Equal(t, 0, countRecords(t, store))
	})

	t.Run("large file wrong pin has same message", func(t *testing.T) {
		store := newTestStore(t, false)
		svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")

		req := smallUpload("big.iso")
		req.Size = 6_000_000
		req.UploadPin = "0000"
		_, err := svc.Upload(ctx, req)
		requireKind(t, err, ErrAuthorization, MsgUploadPinRequired)
		assert.Equal(t, 0, countRecords(t, store))
	})

	t.Run("large file rejected when no pin is configured", func(t *testing.T) {
		store := newTestStore(t, false)
		svc := NewUploadService(store, DirectLink{}, testOrigin, "")

		req := smallUpload("big.iso")
		req.Size = 6_000_000
		req.UploadPin = "anything"
		_, err := svc.Upload(ctx, req)
		requireKind(t, err, ErrAuthorization, MsgUploadPinRequired)
	})

	t.Run("large file correct pin", func(t *testing.T) {
		store := newTestStore(t, false)
		svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")

		req := smallUpload("big.iso")
		req.Size = 6_000_000
		req.UploadPin = "4242"
		out, err := svc.Upload(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, UploadCreated, out.Status)
		assert.Equal(t, 1, countRecords(t, store))
	})
}

func TestUploadCreatesRecordWithDirectLink(t *testing.T) {
	store := newTestStore(t, false)
	svc := NewUploadService(store, DirectLink{}, testOrigin, "")

	out, err := svc.Upload(context.Background(), smallUpload("notes.txt"))
	require.NoError(t, err)

	assert.Equal(t, UploadCreated, out.Status)
	assert.Equal(t, "Your file is uploaded", out.Message)
	assert.Equal(t, testOrigin+"/api/v2/file/"+out.Record.ID, out.LongURL)
	assert.Equal(t, out.LongURL, out.Link)
	assert.False(t, out.Record.Protected)

	stored, err := store.FindByID(context.Background(), out.Record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LongURL)
	assert.Nil(t, stored.ShortURL)
	assert.Equal(t, out.LongURL, *stored.LongURL)
	assert.Equal(t, int64(0), stored.DownloadCount)
	assert.Equal(t, "text/plain; charset=utf-8", stored.MimeType)
}

func TestUploadProtectedOnlyWithNonEmptyPassword(t *testing.T) {
	store := newTestStore(t, false)
	svc := NewUploadService(store, DirectLink{}, testOrigin, "")
	ctx := context.Background()

	req := smallUpload("secret.txt")
	req.Password = "pa55"
	out, err := svc.Upload(ctx, req)
	require.NoError(t, err)
	assert.True(t, out.Record.Protected)

	stored, err := store.FindByID(ctx, out.Record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "pa55", *stored.PasswordHash)

	out, err = svc.Upload(ctx, smallUpload("open.txt"))
	require.NoError(t, err)
	assert.False(t, out.Record.Protected)

	stored, err = store.FindByID(ctx, out.Record.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PasswordHash)
}

func TestUploadDuplicateNameReturnsExistingRecord(t *testing.T) {
	store := newTestStore(t, false)
	svc := NewUploadService(store, DirectLink{}, testOrigin, "4242")
	ctx := context.Background()

	first, err := svc.Upload(ctx, smallUpload("report.pdf"))
	require.NoError(t, err)

	again := smallUpload("report.pdf")
	again.Password = "new-password"
	again.UploadPin = "9999"
	second, err := svc.Upload(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, UploadExisting, second.Status)
	assert.Equal(t, "File with name report.pdf already exists", second.Message)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, first.Link, second.Link)
	assert.Equal(t, first.LongURL, second.LongURL)
	assert.False(t, second.Record.Protected)
	assert.Equal(t, 1, countRecords(t, store))
}

// racingStore 첫 이름 조회에서 기존 레코드를 못 본 것처럼 동작한다.
type racingStore struct {
	FileStore
	hidden bool
}

func (r *racingStore) FindByOriginalName(ctx context.Context, name string) (models.FileRecord, error) {
	if !r.hidden {
		r.hidden = true
		return models.FileRecord{}, notFoundError(MsgFileNotFound)
	}
	return r.FileStore.FindByOriginalName(ctx, name)
}

func TestStrictModeTreatsUniqueViolationAsDuplicate(t *testing.T) {
	base := newTestStore(t, true)
	ctx := context.Background()

	first, err := NewUploadService(base, DirectLink{}, testOrigin, "").Upload(ctx, smallUpload("race.txt"))
	require.NoError(t, err)

	svc := NewUploadService(&racingStore{FileStore: base}, DirectLink{}, testOrigin, "")
	out, err := svc.Upload(ctx, smallUpload("race.txt"))
	require.NoError(t, err)

	assert.Equal(t, UploadExisting, out.Status)
	assert.Equal(t, first.Record.ID, out.Record.ID)
	assert.Equal(t, 1, countRecords(t, base))
}

func TestNonStrictModeAllowsRacingDuplicates(t *testing.T) {
	base := newTestStore(t, false)
	ctx := context.Background()

	_, err := NewUploadService(base, DirectLink{}, testOrigin, "").Upload(ctx, smallUpload("race.txt"))
	require.NoError(t, err)

	out, err := NewUploadService(&racingStore{FileStore: base}, DirectLink{}, testOrigin, "").Upload(ctx, smallUpload("race.txt"))
	require.NoError(t, err)
	assert.Equal(t, UploadCreated, out.Status)
	assert.Equal(t, 2, countRecords(t, base))
}

func newShortenerServer(t *testing.T, gotAuth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotAuth = r.Header.Get("Authorization")
		var body shortenRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]string{"tiny_url": "https://tiny.one/abc123"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadWithShortenedLink(t *testing.T) {
	var auth string
	srv := newShortenerServer(t, &auth)

	store := newTestStore(t, false)
	links := NewShortenedLink(srv.URL, "token-1", "tiny.one", time.Second)
	svc := NewUploadService(store, links, "https://share.example.com", "")

	out, err := svc.Upload(context.Background(), smallUpload("prod.txt"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-1", auth)
	assert.Equal(t, "https://tiny.one/abc123", out.Link)
	assert.Equal(t, "https://share.example.com/api/v2/file/"+out.Record.ID, out.LongURL)

	stored, err := store.FindByID(context.Background(), out.Record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ShortURL)
	assert.Nil(t, stored.LongURL)
	assert.Equal(t, "https://tiny.one/abc123", stored.Link())
}

func TestUploadShortenerFailureCreatesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	store := newTestStore(t, false)
	svc := NewUploadService(store, NewShortenedLink(srv.URL, "t", "", time.Second), testOrigin, "")

	_, err := svc.Upload(context.Background(), smallUpload("fail.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortenerUnavailable)
	_, isReqErr := AsRequestError(err)
	assert.False(t, isReqErr)
	assert.Equal(t, 0, countRecords(t, store))
}

func TestDownloadAuthorize(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()
	uploads := NewUploadService(store, DirectLink{}, testOrigin, "")
	downloads := NewDownloadService(store, nil, t.TempDir())

	req := smallUpload("locked.txt")
	req.Password = "open-sesame"
	out, err := uploads.Upload(ctx, req)
	require.NoError(t, err)

	record, err := downloads.Resolve(ctx, out.Record.ID)
	require.NoError(t, err)

	requireKind(t, downloads.Authorize(record, "", false), ErrValidation, MsgPasswordRequired)
	requireKind(t, downloads.Authorize(record, "wrong", true), ErrAuthorization, MsgPasswordIncorrect)
	requireKind(t, downloads.Authorize(record, "", true), ErrAuthorization, MsgPasswordIncorrect)
	assert.NoError(t, downloads.Authorize(record, "open-sesame", true))

	after, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.DownloadCount)
}

func TestDownloadUnprotectedNeverNeedsPassword(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()
	out, err := NewUploadService(store, DirectLink{}, testOrigin, "").Upload(ctx, smallUpload("free.txt"))
	require.NoError(t, err)

	downloads := NewDownloadService(store, nil, t.TempDir())
	record, err := downloads.Resolve(ctx, out.Record.ID)
	require.NoError(t, err)

	assert.NoError(t, downloads.Authorize(record, "", false))
	assert.NoError(t, downloads.Authorize(record, "whatever", true))

	for i := 1; i <= 3; i++ {
		count, err := downloads.RecordDownload(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}
}

func TestDownloadResolveErrors(t *testing.T) {
	store := newTestStore(t, false)
	downloads := NewDownloadService(store, nil, t.TempDir())

	_, err := downloads.Resolve(context.Background(), "")
	requireKind(t, err, ErrValidation, MsgFileIDRequired)

	_, err = downloads.Resolve(context.Background(), "3f1c3c4e-0000-4000-8000-000000000000")
	requireKind(t, err, ErrNotFound, MsgFileNotFound)

	_, err = downloads.Resolve(context.Background(), "not-a-file-id")
	requireKind(t, err, ErrNotFound, MsgFileNotFound)
}

func TestStageWritesIdenticalBytes(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()
	staging := t.TempDir()

	req := smallUpload("../../etc/passwd")
	req.Content = []byte{0x00, 0x01, 0xfe, 0xff}
	req.Size = 4
	out, err := NewUploadService(store, DirectLink{}, testOrigin, "").Upload(ctx, req)
	require.NoError(t, err)

	downloads := NewDownloadService(store, nil, staging)
	staged, err := downloads.Stage(ctx, out.Record)
	require.NoError(t, err)

	assert.Equal(t, staging, filepath.Dir(staged.Dir))
	assert.True(t, strings.HasPrefix(filepath.Base(staged.Dir), out.Record.ID+"-"), staged.Dir)
	assert.Equal(t, filepath.Join(staged.Dir, "passwd"), staged.Path)
	assert.Equal(t, "../../etc/passwd", staged.Name)

	got, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, req.Content, got)
}

func TestStageUsesSeparateDirectoryPerDownload(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()
	staging := filepath.Join(t.TempDir(), "uploads")

	req := smallUpload("shared.txt")
	out, err := NewUploadService(store, DirectLink{}, testOrigin, "").Upload(ctx, req)
	require.NoError(t, err)

	downloads := NewDownloadService(store, nil, staging)
	first, err := downloads.Stage(ctx, out.Record)
	require.NoError(t, err)
	second, err := downloads.Stage(ctx, out.Record)
	require.NoError(t, err)

	assert.NotEqual(t, first.Dir, second.Dir)
	assert.NotEqual(t, first.Path, second.Path)

	// 먼저 끝난 다운로드의 정리가 다른 다운로드의 파일을 건드리지 않는다.
	require.NoError(t, os.RemoveAll(first.Dir))
	got, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, req.Content, got)
}

func TestDetailsCache(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()
	cache := NewDetailsCache(store, 16, time.Minute)
	downloads := NewDownloadService(store, cache, t.TempDir())

	_, err := cache.Get(ctx, "")
	requireKind(t, err, ErrValidation, MsgFileIDRequired)

	_, err = cache.Get(ctx, "missing")
	requireKind(t, err, ErrNotFound, MsgFileNotFound)

	req := smallUpload("cached.txt")
	req.Password = "x"
	out, err := NewUploadService(store, DirectLink{}, testOrigin, "").Upload(ctx, req)
	require.NoError(t, err)

	details, err := cache.Get(ctx, out.Record.ID)
	require.NoError(t, err)
	assert.True(t, details.Protected)
	assert.Equal(t, "7bit", details.Encoding)
	assert.Equal(t, out.Record.Size, details.Size)
	assert.Equal(t, int64(0), details.DownloadCount)
	assert.Equal(t, 1, cache.Len())

	_, err = downloads.RecordDownload(ctx, out.Record)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	details, err = cache.Get(ctx, out.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), details.DownloadCount)
}

func TestClearStaging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	m := NewMaintenanceService(dir)

	assert.Equal(t, ClearAbsent, m.ClearStaging())
	assert.Equal(t, "Uploads folder does not exists", ClearAbsent.Message())

	require.NoError(t, mkdirWithFile(dir))
	assert.Equal(t, ClearDeleted, m.ClearStaging())
	assert.NoDirExists(t, dir)

	assert.Equal(t, ClearAbsent, m.ClearStaging())
	assert.Equal(t, "Uploads folder deleted", ClearDeleted.Message())
	assert.Equal(t, "Error while deleting uploads folder", ClearFailed.Message())
}

func mkdirWithFile(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, "some-id"), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "some-id", "f.txt"), []byte("x"), 0644)
}

func TestUploadFieldLimitsUseFixedMessages(t *testing.T) {
	store := newTestStore(t, false)
	uploads := NewUploadService(store, DirectLink{}, testOrigin, "")

	_, err := uploads.Upload(context.Background(), smallUpload(strings.Repeat("a", 252)+".txt"))
	requireKind(t, err, ErrValidation, MsgFileNameTooLong)
	assert.NotContains(t, err.Error(), "Key:")

	req := smallUpload("enc.txt")
	req.Encoding = strings.Repeat("x", 51)
	_, err = uploads.Upload(context.Background(), req)
	requireKind(t, err, ErrValidation, MsgInvalidUpload)

	out, err := uploads.Upload(context.Background(), smallUpload(strings.Repeat("b", 251)+".txt"))
	require.NoError(t, err)
	assert.Len(t, out.Record.OriginalName, 255)
	assert.Equal(t, 1, countRecords(t, store))
}

func TestFileCountGauge(t *testing.T) {
	store := newTestStore(t, false)
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewFileCountGauge(store))

	gaugeValue := func() float64 {
		t.Helper()
		families, err := reg.Gather()
		require.NoError(t, err)
		require.Len(t, families, 1)
		assert.Equal(t, "fileshare_files_stored", families[0].GetName())
		return families[0].GetMetric()[0].GetGauge().GetValue()
	}

	assert.Equal(t, float64(0), gaugeValue())

	uploads := NewUploadService(store, DirectLink{}, testOrigin, "")
	for _, name := range []string{"a.txt", "b.txt", "a.txt"} {
		_, err := uploads.Upload(context.Background(), smallUpload(name))
		require.NoError(t, err)
	}
	assert.Equal(t, float64(2), gaugeValue())
}
