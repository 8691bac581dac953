package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"songroom/internal/media"
)

// Downloader is the narrow view of the media collaborators this surface
// consumes.
type Downloader interface {
	SaveToDisk(ctx context.Context, req media.Request) (media.Result, error)
}

func DownloadHandler(dl Downloader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req media.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
		res, err := dl.SaveToDisk(c.Request.Context(), req)
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, res)
		case errors.Is(err, media.ErrNoResult):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, media.ErrTooLong):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("module", "adapters.http").Msg("download failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		}
	}
}
