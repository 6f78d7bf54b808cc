package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/leafscan/leafscan-api/internal/common"
	"github.com/leafscan/leafscan-api/internal/pipeline"
)

type Handler struct {
	pipeline *pipeline.Pipeline
	logger   common.Logger
	tempDir  string
}

func NewHandler(p *pipeline.Pipeline, logger common.Logger) *Handler {
	return &Handler{
		pipeline: p,
		logger:   logger,
		tempDir:  os.TempDir(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Diagnose accepts a multipart image upload, stores it to a temp file and runs
// the diagnosis pipeline. Pipeline failures are reported inside the result
// body, not as HTTP errors: the pipeline's contract is that Predict always
// produces a result.
func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form (32MB in-memory max; the pipeline enforces its own
	// file size limit afterwards).
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	h.logger.Log(fmt.Sprintf("received file: %s, size: %d bytes", header.Filename, header.Size))

	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("upload-%s%s", uuid.NewString(), filepath.Ext(header.Filename)))
	out, err := os.Create(tempPath)
	if err != nil {
		h.logger.Log(fmt.Sprintf("failed to store upload: %s", err))
		http.Error(w, "Failed to store uploaded file", http.StatusInternalServerError)
		return
	}
	_, copyErr := io.Copy(out, file)
	out.Close()
	defer os.Remove(tempPath)
	if copyErr != nil {
		h.logger.Log(fmt.Sprintf("failed to store upload: %s", copyErr))
		http.Error(w, "Failed to store uploaded file", http.StatusInternalServerError)
		return
	}

	result := h.pipeline.Predict(tempPath)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
