package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/logging"
	"github.com/vikinglab/contentvault/internal/server/models"
	"github.com/vikinglab/contentvault/internal/server/notify"
	"github.com/vikinglab/contentvault/internal/server/quota"
	"github.com/vikinglab/contentvault/internal/server/status"
	"github.com/vikinglab/contentvault/internal/server/storage"
	"github.com/vikinglab/contentvault/internal/server/uploads"
	"github.com/vikinglab/contentvault/internal/server/users"
	"github.com/vikinglab/contentvault/internal/server/validation"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u := *user
	u.ID = uuid.NewString()
	f.users[u.UserName] = &u
	return &u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeUploadRepo struct {
	mu      sync.Mutex
	records []*models.UploadRecord
}

func (f *fakeUploadRepo) Create(ctx context.Context, owner, filename string) (*models.UploadRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &models.UploadRecord{
		ID:         uuid.NewString(),
		Owner:      owner,
		Filename:   filename,
		Status:     common.StatusInProgress,
		UploadTime: time.Now().UTC(),
	}
	f.records = append(f.records, r)
	cp := *r
	return &cp, nil
}

func (f *fakeUploadRepo) MarkSuccess(ctx context.Context, id string, sizeBytes int64) error {
	return f.mark(id, common.StatusSuccess, sizeBytes, "")
}

func (f *fakeUploadRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	return f.mark(id, common.StatusFailed, 0, errorMessage)
}

func (f *fakeUploadRepo) mark(id, st string, size int64, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id && r.Status == common.StatusInProgress {
			r.Status = st
			r.SizeBytes = size
			r.ErrorMessage = msg
			return nil
		}
	}
	return errors.New("unexpected rows affected: 0")
}

func (f *fakeUploadRepo) GetLatestByOwner(ctx context.Context, owner string) (*models.UploadRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.UploadRecord
	for _, r := range f.records {
		if r.Owner != owner {
			continue
		}
		if latest == nil || r.UploadTime.After(latest.UploadTime) {
			latest = r
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeUploadRepo) SelectAll(ctx context.Context) ([]*models.UploadRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.UploadRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeUploadRepo) TotalStoredBytes(ctx context.Context) (int64, error) { return 0, nil }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *notify.Dispatcher) {
	t.Helper()

	logger := testLogger()
	userRepo := &fakeUserRepo{users: make(map[string]*models.User)}
	uploadRepo := &fakeUploadRepo{}
	store := storage.NewMemStore()
	dispatcher := notify.NewDispatcher(logger)

	chain := validation.NewChain(
		&validation.SizeValidator{MaxSize: 3 * 1024 * 1024},
		&validation.NameValidator{Forbidden: "ж"},
		&validation.JSONValidator{},
		&validation.DiskSpaceValidator{Store: store, MinFree: 10},
	)

	usersSvc := users.NewService(userRepo, []byte(testSecret), time.Minute, logger)
	uploadsSvc := uploads.NewService(uploadRepo, store, chain, quota.NewReservation(10<<20), dispatcher, logger)
	statusSvc := status.NewService(uploadRepo, logger)

	handler := NewHandler(usersSvc, uploadsSvc, statusSvc, logger)
	s := NewServer(":0", []byte(testSecret), handler, logger)

	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, dispatcher
}

func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "pa$$word"})
	resp, err := http.Post(ts.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func uploadFile(t *testing.T, ts *httptest.Server, token, filename string, content []byte, callbackURL string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if callbackURL != "" {
		require.NoError(t, mw.WriteField("callback_url", callbackURL))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/files/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "alice")

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "pa$$word"})
	resp, err := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "alice")

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	resp, err := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "alice")

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "other"})
	resp, err := http.Post(ts.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpload_RequiresAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/files/", strings.NewReader(""))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpload_Success(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	resp := uploadFile(t, ts, token, "report.txt", []byte("plain text"), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data uploadRecordResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, common.StatusSuccess, envelope.Data.Status)
	assert.Equal(t, "report.txt", envelope.Data.Filename)
	assert.Equal(t, "alice", envelope.Data.Username)
	assert.Equal(t, int64(10), envelope.Data.SizeBytes)
	assert.Nil(t, envelope.Data.ErrorMessage)
}

func TestUpload_RejectionReturns422WithRecord(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	resp := uploadFile(t, ts, token, "data.json", []byte(`{"a":1}`), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var envelope struct {
		Data  uploadRecordResponse `json:"data"`
		Error *errorBody           `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, common.StatusFailed, envelope.Data.Status)
	require.NotNil(t, envelope.Data.ErrorMessage)
	assert.Equal(t, "File contains valid JSON (not allowed)", *envelope.Data.ErrorMessage)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "rejected", envelope.Error.Code)
}

func TestUpload_DeliversCallback(t *testing.T) {
	var mu sync.Mutex
	var got notify.Notification
	received := make(chan struct{})

	callbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		close(received)
	}))
	defer callbackSrv.Close()

	ts, dispatcher := newTestServer(t)
	token := registerUser(t, ts, "alice")

	resp := uploadFile(t, ts, token, "report.txt", []byte("plain text"), callbackSrv.URL)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dispatcher.Wait()
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never arrived")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, common.StatusSuccess, got.Status)
	assert.Equal(t, "report.txt", got.Filename)
	assert.Nil(t, got.ErrorMessage)
}

func TestLatestUpload(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	uploadFile(t, ts, token, "first.txt", []byte("one"), "").Body.Close()
	uploadFile(t, ts, token, "second.txt", []byte("two"), "").Body.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/files/latest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data *uploadRecordResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "second.txt", envelope.Data.Filename)
}

func TestLatestUpload_NoneYet(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/files/latest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data *uploadRecordResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Nil(t, envelope.Data)
}

func TestExportCSV(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	uploadFile(t, ts, token, "report.txt", []byte("plain text"), "").Body.Close()
	uploadFile(t, ts, token, "empty.txt", nil, "").Body.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/files/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Filename,Username,SizeBytes,UploadTime,Status,ErrorMessage", lines[0])
	assert.Contains(t, lines[1], "report.txt")
	assert.Contains(t, lines[1], common.StatusSuccess)
	assert.Contains(t, lines[2], "empty.txt")
	assert.Contains(t, lines[2], "File is empty.")
}

func TestDownload(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	uploadFile(t, ts, token, "report.txt", []byte("plain text"), "").Body.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/files/report.txt/content", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain text"), body)
}

func TestDownload_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/files/missing.txt/content", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUptime_IsPublic(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/uptime")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data uptimeResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.GreaterOrEqual(t, envelope.Data.UptimeSeconds, int64(0))
	assert.False(t, envelope.Data.StartTime.IsZero())
	assert.WithinDuration(t, time.Now(), envelope.Data.StartTime, time.Minute)
}
