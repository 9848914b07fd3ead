// Package httpapi exposes the server over HTTP/JSON: auth, upload submission,
// status queries, CSV export, and content download.
//
// Every JSON response uses the {data, error} envelope; rejected uploads come
// back as 422 with the rejection reason, infrastructure failures as 500 with
// a generic message.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/logging"
	"github.com/vikinglab/contentvault/internal/server/models"
	"github.com/vikinglab/contentvault/internal/server/status"
	"github.com/vikinglab/contentvault/internal/server/uploads"
	"github.com/vikinglab/contentvault/internal/server/users"
	"github.com/vikinglab/contentvault/internal/server/validation"
)

// multipart parsing keeps a little headroom above the upload ceiling so an
// oversize file is rejected by the validator with its proper message rather
// than by the HTTP layer
const maxMultipartMemory = 8 << 20

type successEnvelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: &errorBody{Code: code, Message: message}})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// uploadRecordResponse is the wire shape of one upload record. ErrorMessage
// follows the callback convention: null unless the attempt failed.
type uploadRecordResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Username     string    `json:"username"`
	Status       string    `json:"status"`
	SizeBytes    int64     `json:"sizeBytes"`
	ErrorMessage *string   `json:"errorMessage"`
	UploadTime   time.Time `json:"uploadTime"`
}

func toRecordResponse(r *models.UploadRecord) *uploadRecordResponse {
	resp := &uploadRecordResponse{
		ID:         r.ID,
		Filename:   r.Filename,
		Username:   r.Owner,
		Status:     r.Status,
		SizeBytes:  r.SizeBytes,
		UploadTime: r.UploadTime,
	}
	if r.ErrorMessage != "" {
		resp.ErrorMessage = &r.ErrorMessage
	}
	return resp
}

type Handler struct {
	users   *users.Service
	uploads *uploads.Service
	status  *status.Service
	logger  logging.Logger
}

func NewHandler(usersSvc *users.Service, uploadsSvc *uploads.Service, statusSvc *status.Service, logger logging.Logger) *Handler {
	return &Handler{
		users:   usersSvc,
		uploads: uploadsSvc,
		status:  statusSvc,
		logger:  logger.With("module", "httpapi"),
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	token, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			writeError(w, http.StatusConflict, "conflict", "username is already taken")
		case errors.Is(err, common.ErrorUnauthorized):
			writeError(w, http.StatusBadRequest, "bad_request", "username and password are required")
		default:
			h.logger.Error(r.Context(), "registration failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "internal", "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password")
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Upload accepts a multipart form with a "file" part and an optional
// "callback_url" field. The response always carries the terminal record when
// one exists, even for rejected uploads.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "missing file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "reading file part failed")
		return
	}

	callbackURL := r.FormValue("callback_url")
	owner := GetUsername(r.Context())

	record, err := h.uploads.Store(r.Context(), owner, header.Filename, data, callbackURL)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(errorEnvelope{
				Data:  toRecordResponse(record),
				Error: &errorBody{Code: "rejected", Message: verr.Reason},
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", uploads.ErrStorageFailed.Error())
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(record))
}

// LatestUpload returns the caller's most recent attempt; data is null when
// the caller has never uploaded.
func (h *Handler) LatestUpload(w http.ResponseWriter, r *http.Request) {
	record, err := h.status.LastUpload(r.Context(), GetUsername(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "status query failed")
		return
	}
	if record == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="uploads.csv"`)
	if err := h.status.ExportCSV(r.Context(), w); err != nil {
		// headers are already on the wire; log and cut the stream short
		h.logger.Error(r.Context(), "csv export failed", "error", err.Error())
	}
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := h.uploads.Load(r.Context(), name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such file")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "content read failed")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

type uptimeResponse struct {
	UptimeSeconds int64     `json:"uptimeSeconds"`
	StartTime     time.Time `json:"startTime"`
}

func (h *Handler) Uptime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, uptimeResponse{
		UptimeSeconds: int64(h.status.Uptime().Seconds()),
		StartTime:     h.status.StartTime(),
	})
}
