package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 8 << 20

// multipartOverhead leaves room for boundaries and small form fields such as face keypoints.
const multipartOverhead = 1 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// readImage returns the bytes of the named multipart file, writing 400, 413 or 415 itself
// and returning false when the upload is unusable.
func readImage(c *gin.Context, field string) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+multipartOverhead)

	file, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return nil, false
	}
	if file.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return nil, false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return nil, false
	}

	if !allowedImageTypes[imageType(file.Header.Get("Content-Type"), data)] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "image must be jpeg or png"})
		return nil, false
	}
	return data, true
}

// imageType trusts an explicit part header and sniffs the bytes otherwise.
func imageType(header string, data []byte) string {
	if header != "" && header != "application/octet-stream" {
		mediaType, _, err := mime.ParseMediaType(header)
		if err == nil {
			return mediaType
		}
	}
	return http.DetectContentType(data)
}
