package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	maxImageBytes  = 5 << 20
	imageFormField = "image"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type imageUploadData struct {
	URL string `json:"url"`
}

// UploadLoanImage stores a multipart image and answers its public URL.
func (a *App) UploadLoanImage(w http.ResponseWriter, r *http.Request) {
	if a.Images == nil {
		WriteError(w, NotFound("image storage is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, InvalidInput("image must be at most 5 MiB"))
			return
		}
		WriteError(w, InvalidInput("invalid multipart form"))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		WriteError(w, missingFields(imageFormField))
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		WriteError(w, InvalidInput("image must be at most 5 MiB"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		WriteError(w, InvalidInput("could not read image"))
		return
	}
	if len(body) == 0 {
		WriteError(w, InvalidInput("image is empty"))
		return
	}
	if len(body) > maxImageBytes {
		WriteError(w, InvalidInput("image must be at most 5 MiB"))
		return
	}

	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		WriteError(w, InvalidInput("file must be an image"))
		return
	}

	key := "loans/" + uuid.NewString() + imageExtension(contentType, header.Filename)
	url, err := a.Images.Upload(r.Context(), key, contentType, body)
	if err != nil {
		a.log(r).WithError(err).WithField("key", key).Error("image upload failed")
		WriteError(w, &APIError{Kind: KindStoreFailure, Message: "image upload failed"})
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Image uploaded successfully",
		Data:    imageUploadData{URL: url},
	})
}

func imageExtension(contentType, filename string) string {
	if ext, ok := imageExtensions[contentType]; ok {
		return ext
	}
	return strings.ToLower(path.Ext(filename))
}
