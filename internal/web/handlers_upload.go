package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/metrics"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to temporary files.
const multipartMemory = 8 << 20

const uploadFailedSummary = "File processing failed"

var (
	errNoFilePart     = errors.New("no file part")
	errNoSelectedFile = errors.New("no selected file")
)

// handleUpload ingests a CSV sent as the multipart field "file" and returns
// the stored count and the rejected rows.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			metrics.RecordUpload(metrics.UploadRejected)
			respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file too large: limit is %d bytes", s.cfg.Upload.MaxFileSize), err)
			return
		}
		metrics.RecordUpload(metrics.UploadRejected)
		respondError(w, r, http.StatusBadRequest, "No file part", errNoFilePart)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A file input left empty arrives as a part with filename="", which
		// mime/multipart stores as a plain form value. A text field named
		// "file" looks the same once parsed.
		summary, missing := "No file part", errNoFilePart
		if _, ok := r.MultipartForm.Value["file"]; ok {
			summary, missing = "No selected file", errNoSelectedFile
		}
		metrics.RecordUpload(metrics.UploadRejected)
		respondError(w, r, http.StatusBadRequest, summary, missing)
		return
	}
	defer file.Close()

	result, err := s.service.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		s.respondIngestError(w, r, err)
		return
	}

	metrics.RecordIngest(result.Stored, len(result.Failed))
	w.Header().Set("X-Upload-ID", result.UploadID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) respondIngestError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidCSV), errors.Is(err, core.ErrInvalidEncoding):
		metrics.RecordUpload(metrics.UploadRejected)
		respondError(w, r, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, core.ErrTooManyUploads):
		metrics.RecordUpload(metrics.UploadBusy)
		w.Header().Set("Retry-After", "5")
		respondError(w, r, http.StatusServiceUnavailable, err.Error(), err)
	default:
		metrics.RecordUpload(metrics.UploadFailed)
		respondError(w, r, http.StatusInternalServerError, uploadFailedSummary, err)
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
