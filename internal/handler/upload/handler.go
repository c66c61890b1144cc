package upload

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelog/patient-api/internal/handler"
)

// Handler stores multipart uploads on local disk and serves them back
// statically. File storage is a collaborator of the patient API, not part
// of the record core.
type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	return &Handler{dir: dir}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.Upload)
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("no file uploaded"))
		return
	}

	// Timestamp plus a short random prefix keeps concurrent uploads of the
	// same filename from colliding.
	name := fmt.Sprintf("%d-%s-%s",
		time.Now().UnixMilli(),
		uuid.NewString()[:8],
		filepath.Base(file.Filename),
	)

	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to store file"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": name,
		"filePath": "/uploads/" + name,
	})
}
