package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"openchat/internal/providers/minio"
	"openchat/internal/utils"
	apperrors "openchat/pkg/errors"
)

// Storage is where attachments land.
type Storage interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (*minio.UploadedObject, error)
}

type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

func (k Kind) prefix() string {
	if k == KindImage {
		return "images/"
	}
	return "audio/"
}

type Limits struct {
	MaxImageBytes int64
	MaxAudioBytes int64
}

type Handler struct {
	storage Storage
	limits  Limits
	logger  *zap.Logger
}

func NewHandler(storage Storage, limits Limits, logger *zap.Logger) *Handler {
	return &Handler{
		storage: storage,
		limits:  limits,
		logger:  logger,
	}
}

// @Summary Upload an attachment
// @Description Stores an image or audio clip and returns its public URL
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Attachment"
// @Param kind formData string true "image or audio"
// @Param path formData string false "Object path under images/ or audio/"
// @Success 201 {object} minio.UploadedObject
// @Failure 400 {object} apperrors.APIError
// @Failure 413 {object} apperrors.APIError
// @Failure 503 {object} apperrors.APIError
// @Router /api/uploads [post]
func (h *Handler) Upload(c *gin.Context) {
	if h.storage == nil {
		utils.RespondError(c, apperrors.ErrStorageDisabled)
		return
	}

	kind := Kind(c.PostForm("kind"))
	if kind != KindImage && kind != KindAudio {
		utils.RespondError(c, fmt.Errorf("%w: kind must be image or audio", apperrors.ErrBadRequest))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, fmt.Errorf("%w: file is required", apperrors.ErrBadRequest))
		return
	}

	limit := h.limits.MaxAudioBytes
	if kind == KindImage {
		limit = h.limits.MaxImageBytes
	}
	if fileHeader.Size > limit {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("%s exceeds the %d byte limit", kind, limit),
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = minio.DetectContentType(fileHeader.Filename)
	}
	if !strings.HasPrefix(contentType, string(kind)+"/") {
		utils.RespondError(c, fmt.Errorf("%w: %s is not an %s type", apperrors.ErrBadRequest, contentType, kind))
		return
	}

	objectName, err := ObjectName(kind, c.PostForm("path"), fileHeader.Filename)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.RespondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer src.Close()

	result, err := h.storage.Upload(c.Request.Context(), objectName, contentType, src, fileHeader.Size)
	if err != nil {
		h.logger.Error("Failed to upload attachment", zap.String("object_name", objectName), zap.Error(err))
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ObjectName validates a client-chosen path, or generates one under the
// kind's prefix when none was given.
func ObjectName(kind Kind, requested, filename string) (string, error) {
	if requested == "" {
		return fmt.Sprintf("%s%d-%s%s", kind.prefix(), time.Now().UnixMilli(), uuid.NewString()[:8], strings.ToLower(path.Ext(filename))), nil
	}

	clean := path.Clean(requested)
	if clean != requested || strings.Contains(requested, "..") || !strings.HasPrefix(clean, kind.prefix()) || clean == kind.prefix() {
		return "", fmt.Errorf("%w: path must live under %s", apperrors.ErrBadRequest, kind.prefix())
	}
	return clean, nil
}
