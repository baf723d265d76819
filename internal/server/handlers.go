package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	docconv "github.com/alnah/go-docconv"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// payloads spool to disk.
const multipartMemory = 16 << 20

// uploadSlack covers multipart framing overhead on top of the payload cap.
const uploadSlack = 1 << 20

// handleRoot returns a service banner.
// GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "docconv",
		"message": "document conversion API",
	})
}

// handleHealth reports liveness and the fixed pool size.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"workers": s.conv.Workers(),
	})
}

// handleFormats reflects the live configuration.
// GET /formats
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"input_formats": s.conv.InputFormats(),
		"output_format": s.conv.OutputFormat(),
	})
}

// handleConvert converts one uploaded document and streams the artifact
// back. The artifact is read straight from the job workspace, so memory
// stays bounded regardless of document size.
// POST /convert, multipart field "file"
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.conv.MaxFileSize()+uploadSlack)

	filename, payload, err := s.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.conv.Convert(r.Context(), filename, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	defer result.Close()

	f, err := result.Open()
	if err != nil {
		s.logger.Error("opening converted artifact", zap.Error(err))
		writeError(w, fmt.Errorf("reading artifact: %w", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", outputName(filename, s.conv.OutputFormat())))
	// Past this point errors can only be logged; headers are gone.
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("streaming artifact interrupted", zap.Error(err))
	}
}

// batchItemResult is one entry in the batch response, aligned to input
// order.
type batchItemResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// handleConvertBatch converts several documents on the shared pool and
// reports per-file status in input order. Artifacts are not returned on
// this path; it exists for validation and warm-up style workloads.
// POST /convert/batch, multipart field "files"
func (s *Server) handleConvertBatch(w http.ResponseWriter, r *http.Request) {
	maxBatch := s.conv.Workers() * 2
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBatch)*(s.conv.MaxFileSize()+uploadSlack))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Detail: "failed to parse multipart form"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Detail: "no files provided"})
		return
	}
	if len(files) > maxBatch {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "too_many_files",
			Detail: fmt.Sprintf("batch limited to %d files", maxBatch),
		})
		return
	}

	items := make([]docconv.BatchItem, len(files))
	for i, fh := range files {
		payload, err := readPart(fh)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Detail: err.Error()})
			return
		}
		items[i] = docconv.BatchItem{Filename: fh.Filename, Payload: payload}
	}

	outcomes := s.conv.ConvertBatch(r.Context(), items)

	results := make([]batchItemResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = batchItemResult{Filename: items[i].Filename, Success: o.Err == nil}
		if o.Err != nil {
			results[i].Error = codeFor(o.Err)
			results[i].Detail = o.Err.Error()
		}
		if o.Result != nil {
			_ = o.Result.Close()
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// readUpload extracts the single "file" part from a multipart request.
func (s *Server) readUpload(r *http.Request) (string, []byte, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: request body exceeds %d bytes", docconv.ErrFileTooLarge, tooLarge.Limit)
		}
		return "", nil, fmt.Errorf("%w: multipart field \"file\" is required", docconv.ErrMissingFilename)
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: request body exceeds %d bytes", docconv.ErrFileTooLarge, tooLarge.Limit)
		}
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}

	return header.Filename, payload, nil
}

// readPart reads one file part of a batch upload.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// outputName derives the download filename: original stem plus the output
// extension, stripped of any path fragments the client sent.
func outputName(filename, format string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "converted"
	}
	return stem + "." + format
}
