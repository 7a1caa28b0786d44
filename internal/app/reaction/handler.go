package reaction

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"openchat/internal/middleware"
	"openchat/internal/transcript"
	"openchat/internal/utils"
	apperrors "openchat/pkg/errors"
)

type Handler interface {
	ListReactions(c *gin.Context)
	React(c *gin.Context)
	Unreact(c *gin.Context)
}

type handler struct {
	service Service
	policy  middleware.IdentityPolicy
}

func NewHandler(service Service, policy middleware.IdentityPolicy) Handler {
	return &handler{service: service, policy: policy}
}

// @Summary List reactions on a message
// @Tags Reaction
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} ReactionListResponse
// @Router /api/messages/{id}/reactions [get]
func (h *handler) ListReactions(c *gin.Context) {
	reactions, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReactionListResponse{Reactions: reactions})
}

// @Summary React to a message
// @Description Sets the caller's reaction, replacing an earlier kind
// @Tags Reaction
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body ReactRequest true "Reaction"
// @Success 201 {object} Reaction
// @Success 200 {object} Reaction
// @Router /api/messages/{id}/reactions [post]
func (h *handler) React(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	who, err := h.policy.Resolve(c, transcript.Identity{ID: req.UserID, Nickname: req.Nickname})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	rec, created, err := h.service.React(c.Request.Context(), c.Param("id"), who, req.Kind)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

// @Summary Remove own reaction
// @Tags Reaction
// @Param id path string true "Message ID"
// @Param user_id query string false "Legacy user id"
// @Success 204
// @Router /api/messages/{id}/reactions [delete]
func (h *handler) Unreact(c *gin.Context) {
	who, err := h.policy.Resolve(c, transcript.Identity{ID: c.Query("user_id")})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.service.Unreact(c.Request.Context(), c.Param("id"), who); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
