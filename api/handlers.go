package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	poolerrors "github.com/kbukum/whisperpool/errors"
	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/pool"
)

type handlers struct {
	mgr *pool.Manager
	log *logger.Logger
}

// health reports liveness independent of pool state: the process
// answering at all means it's alive. Worker health is exposed separately
// through status.
func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.Snapshot())
}

// providers lists the transcription backends this deployment can proxy
// to. There is exactly one today; the shape is deliberately a list so a
// future multi-backend pool doesn't need a breaking response change.
func (h *handlers) providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": []gin.H{
			{"name": "whisper-server", "type": "local-process-pool"},
		},
	})
}

type transcribeRequest struct {
	AudioBase64 string                 `json:"audio_base64" validate:"required"`
	Language    string                 `json:"language" validate:"omitempty,max=16"`
	// Timestamps defaults to true, matching transcribe()'s signature. The
	// proxy path always decodes and returns segments when the child sends
	// them; this flag has no effect on that today.
	Timestamps *bool             `json:"timestamps"`
	Metadata   map[string]string `json:"metadata"`
}

func (h *handlers) transcribe(c *gin.Context) {
	var req transcribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "bad_request",
			"message": err.Error(),
		}})
		return
	}
	if err := Validate(&req); err != nil {
		writeError(c, err)
		return
	}

	timestamps := true
	if req.Timestamps != nil {
		timestamps = *req.Timestamps
	}

	result, err := h.mgr.Transcribe(c.Request.Context(), pool.TranscribeRequest{
		AudioBase64: req.AudioBase64,
		Language:    req.Language,
		Timestamps:  timestamps,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeError maps a pool/errors.PoolError to its declared HTTP status;
// anything else falls back to 500.
func writeError(c *gin.Context, err error) {
	if pe, ok := poolerrors.As(err); ok {
		c.JSON(pe.HTTPStatus, pe.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
		"code":    "internal_error",
		"message": err.Error(),
	}})
}
