package message

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"openchat/internal/middleware"
	"openchat/internal/transcript"
	"openchat/internal/utils"
	apperrors "openchat/pkg/errors"
)

type Handler interface {
	ListMessages(c *gin.Context)
	CreateMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
	DeleteOwnMessages(c *gin.Context)
	GetMessageCounts(c *gin.Context)
}

type handler struct {
	service Service
	policy  middleware.IdentityPolicy
}

func NewHandler(service Service, policy middleware.IdentityPolicy) Handler {
	return &handler{
		service: service,
		policy:  policy,
	}
}

// @Summary List recent messages
// @Description Most recent messages, oldest first
// @Tags Message
// @Produce json
// @Param limit query int false "Number of messages (max 500)"
// @Success 200 {object} MessageListResponse
// @Router /api/messages [get]
func (h *handler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.service.ListRecent(c.Request.Context(), limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageListResponse{Messages: messages})
}

// @Summary Send a message
// @Tags Message
// @Accept json
// @Produce json
// @Param request body CreateMessageRequest true "Message"
// @Success 201 {object} Message
// @Failure 400 {object} apperrors.APIError
// @Failure 429 {object} apperrors.APIError
// @Router /api/messages [post]
func (h *handler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	who, err := h.policy.Resolve(c, transcript.Identity{ID: req.UserID, Nickname: req.Nickname})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	msg, err := h.service.Create(c.Request.Context(), who, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// @Summary Delete a message
// @Description Only the author may delete. Reactions are removed with it.
// @Tags Message
// @Accept json
// @Param id path string true "Message ID"
// @Param request body DeleteMessageRequest false "Legacy identity"
// @Success 204
// @Failure 403 {object} apperrors.APIError
// @Failure 404 {object} apperrors.APIError
// @Router /api/messages/{id} [delete]
func (h *handler) DeleteMessage(c *gin.Context) {
	var req DeleteMessageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, apperrors.ErrBadRequest)
			return
		}
	}

	who, err := h.policy.Resolve(c, transcript.Identity{ID: req.UserID, Nickname: req.Nickname})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), who); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Delete own messages
// @Tags Message
// @Param id path string true "User ID"
// @Param kind query string false "all, images or audio"
// @Success 200 {object} BulkDeleteResponse
// @Router /api/users/{id}/messages [delete]
func (h *handler) DeleteOwnMessages(c *gin.Context) {
	kind, ok := ParseDeleteKind(c.Query("kind"))
	if !ok {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	who, err := h.self(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	n, err := h.service.DeleteOwn(c.Request.Context(), who, kind)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BulkDeleteResponse{Deleted: n})
}

// @Summary Own message counts
// @Tags Message
// @Produce json
// @Param id path string true "User ID"
// @Param nickname query string false "Legacy nickname"
// @Success 200 {object} MessageCounts
// @Router /api/users/{id}/message-counts [get]
func (h *handler) GetMessageCounts(c *gin.Context) {
	who, err := h.self(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	counts, err := h.service.Counts(c.Request.Context(), who)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// self resolves the caller for /users/:id routes. A verified caller may
// only act on their own id.
func (h *handler) self(c *gin.Context) (transcript.Identity, error) {
	who, err := h.policy.Resolve(c, transcript.Identity{ID: c.Param("id"), Nickname: c.Query("nickname")})
	if err != nil {
		return who, err
	}
	if who.ID != c.Param("id") {
		return who, apperrors.ErrForbidden
	}
	return who, nil
}
