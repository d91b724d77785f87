package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/core/ports"
)

type CaptionHandler struct {
	captions ports.CaptionService
}

func NewCaptionHandler(captions ports.CaptionService) *CaptionHandler {
	return &CaptionHandler{captions: captions}
}

// Suggest handles POST /ai/caption. It always answers 200; generator
// failures yield the fallback caption.
//
// @Summary      Suggest a caption
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      captionRequest  true  "What the photo is about"
// @Success      200   {object}  captionResponse
// @Failure      400   {object}  map[string]string
// @Router       /ai/caption [post]
func (h *CaptionHandler) Suggest(c echo.Context) error {
	var req captionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, captionResponse{
		Caption: h.captions.Suggest(c.Request().Context(), req.Prompt),
	})
}
