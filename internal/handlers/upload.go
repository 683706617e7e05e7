package handlers

import (
	"net/http"

	"github.com/AnshRaj112/wellnest-backend/internal/services"
)

const maxUploadBytes = 10 << 20

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadFile stores a journal image in Cloudinary and returns its URL for imageUrl.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if uploader == nil {
		writeJSON(w, http.StatusServiceUnavailable, UploadResponse{Message: "File uploads are not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1024)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, UploadResponse{Message: "Failed to parse form"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, UploadResponse{Message: "No file provided"})
		return
	}
	file.Close()

	url, err := uploader.UploadFileFromHeader(r.Context(), fileHeader, services.JournalAttachmentFolder)
	if err != nil {
		logFailure(r, err, "file upload failed")
		writeJSON(w, http.StatusInternalServerError, UploadResponse{Message: "Failed to upload file"})
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}
