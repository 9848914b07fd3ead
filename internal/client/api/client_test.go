package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikinglab/contentvault/internal/common"
)

func jsonResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestLogin_StoresTokenForLaterCalls(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			jsonResponse(w, http.StatusOK, `{"data":{"token":"tok-123"}}`)
		case "/api/files/latest":
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, http.StatusOK, `{"data":null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	require.NoError(t, c.Login(context.Background(), "alice", "pw"))
	assert.True(t, c.IsLoggedIn())

	record, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusUnauthorized, `{"data":null,"error":{"code":"unauthorized","message":"invalid username or password"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.False(t, c.IsLoggedIn())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusConflict, `{"data":null,"error":{"code":"conflict","message":"username is already taken"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Register(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestUpload_SendsMultipartAndCallbackURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.txt", header.Filename)
		assert.Equal(t, "http://client:8081/upload-status/abc", r.FormValue("callback_url"))

		jsonResponse(w, http.StatusOK, `{"data":{"id":"id-1","filename":"report.txt","username":"alice","status":"SUCCESS","sizeBytes":10,"errorMessage":null,"uploadTime":"2026-08-30T14:05:09Z"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	record, err := c.Upload(context.Background(), "report.txt", []byte("0123456789"), "http://client:8081/upload-status/abc")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", record.Status)
	assert.Equal(t, int64(10), record.SizeBytes)
	assert.Nil(t, record.ErrorMessage)
}

func TestUpload_RejectionCarriesRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusUnprocessableEntity,
			`{"data":{"id":"id-1","filename":"empty.txt","username":"alice","status":"FAILED","sizeBytes":0,"errorMessage":"File is empty.","uploadTime":"2026-08-30T14:05:09Z"},"error":{"code":"rejected","message":"File is empty."}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	record, err := c.Upload(context.Background(), "empty.txt", nil, "")

	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "File is empty.", rej.Reason)
	require.NotNil(t, record)
	assert.Equal(t, "FAILED", record.Status)
	require.NotNil(t, record.ErrorMessage)
	assert.Equal(t, "File is empty.", *record.ErrorMessage)
}

func TestLatest_ReturnsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK,
			`{"data":{"id":"id-1","filename":"report.txt","username":"alice","status":"SUCCESS","sizeBytes":10,"errorMessage":null,"uploadTime":"2026-08-30T14:05:09Z"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	record, err := c.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "report.txt", record.Filename)
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusNotFound, `{"data":null,"error":{"code":"not_found","message":"no such file"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Download(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestExportCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("ID,Filename,Username,SizeBytes,UploadTime,Status,ErrorMessage\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	data, err := c.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "ID,Filename")
}

func TestServerDown_IsUnavailable(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := c.Uptime(context.Background())
	assert.ErrorIs(t, err, common.ErrorUnavailable)

	err = c.Login(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, common.ErrorUnavailable)
}

func TestUptime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/uptime", r.URL.Path)
		jsonResponse(w, http.StatusOK, `{"data":{"uptimeSeconds":90,"startTime":"2026-08-30T14:05:09Z"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	status, err := c.Uptime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(90), status.UptimeSeconds)
	assert.Equal(t, time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC), status.StartTime.UTC())
}
