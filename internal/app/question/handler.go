package question

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"openchat/internal/middleware"
	"openchat/internal/transcript"
	"openchat/internal/utils"
	apperrors "openchat/pkg/errors"
)

type Handler interface {
	Current(c *gin.Context)
	Answer(c *gin.Context)
	Answers(c *gin.Context)
}

type handler struct {
	service Service
	policy  middleware.IdentityPolicy
}

func NewHandler(service Service, policy middleware.IdentityPolicy) Handler {
	return &handler{service: service, policy: policy}
}

// @Summary Current daily question
// @Tags Question
// @Produce json
// @Success 200 {object} CurrentResponse
// @Failure 404 {object} apperrors.APIError
// @Router /api/questions/current [get]
func (h *handler) Current(c *gin.Context) {
	resp, err := h.service.Current(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Answer a daily question
// @Description One answer per user; answering again replaces it
// @Tags Question
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param request body AnswerRequest true "Answer"
// @Success 200 {object} Answer
// @Router /api/questions/{id}/answers [post]
func (h *handler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	who, err := h.policy.Resolve(c, transcript.Identity{ID: req.UserID, Nickname: req.Nickname})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	answer, err := h.service.Answer(c.Request.Context(), c.Param("id"), who, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// @Summary List answers
// @Tags Question
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} AnswerListResponse
// @Router /api/questions/{id}/answers [get]
func (h *handler) Answers(c *gin.Context) {
	answers, err := h.service.Answers(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnswerListResponse{Answers: answers})
}
