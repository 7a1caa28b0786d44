package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"openchat/internal/middleware"
	"openchat/internal/transcript"
	"openchat/internal/utils"
	apperrors "openchat/pkg/errors"
)

type Handler interface {
	Register(c *gin.Context)
	Availability(c *gin.Context)
	Login(c *gin.Context)
	Claim(c *gin.Context)
	Members(c *gin.Context)
	Touch(c *gin.Context)
}

type handler struct {
	service Service
	policy  middleware.IdentityPolicy
}

func NewHandler(service Service, policy middleware.IdentityPolicy) Handler {
	return &handler{service: service, policy: policy}
}

// @Summary Register a nickname
// @Tags User
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Nickname"
// @Success 201 {object} AuthResponse
// @Failure 409 {object} apperrors.APIError
// @Router /api/users [post]
func (h *handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req.Nickname)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Check nickname availability
// @Tags User
// @Produce json
// @Param nickname query string true "Nickname"
// @Success 200 {object} AvailabilityResponse
// @Router /api/users/availability [get]
func (h *handler) Availability(c *gin.Context) {
	nickname := c.Query("nickname")
	if nickname == "" {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	ok, err := h.service.Available(c.Request.Context(), nickname)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AvailabilityResponse{Nickname: nickname, Available: ok})
}

// @Summary Log in by user id or nickname
// @Tags User
// @Accept json
// @Produce json
// @Param request body LoginRequest true "User id or nickname"
// @Success 200 {object} AuthResponse
// @Failure 404 {object} apperrors.APIError
// @Router /api/users/login [post]
func (h *handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	var (
		resp *AuthResponse
		err  error
	)
	switch {
	case req.UserID != "":
		resp, err = h.service.LoginByID(c.Request.Context(), req.UserID)
	case req.Nickname != "":
		resp, err = h.service.LoginByNickname(c.Request.Context(), req.Nickname)
	default:
		err = apperrors.ErrBadRequest
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Claim an account
// @Description Recovers an account when both id and nickname match
// @Tags User
// @Accept json
// @Produce json
// @Param request body ClaimRequest true "User id and nickname"
// @Success 200 {object} AuthResponse
// @Router /api/users/claim [post]
func (h *handler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.ErrBadRequest)
		return
	}

	resp, err := h.service.Claim(c.Request.Context(), req.UserID, req.Nickname)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List members
// @Description Members by recent activity; online means active within 5 minutes
// @Tags User
// @Produce json
// @Success 200 {object} MemberListResponse
// @Router /api/users [get]
func (h *handler) Members(c *gin.Context) {
	members, online, err := h.service.Members(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MemberListResponse{Members: members, Online: online})
}

// @Summary Mark a user active
// @Tags User
// @Param id path string true "User ID"
// @Success 204
// @Router /api/users/{id}/active [post]
func (h *handler) Touch(c *gin.Context) {
	who, err := h.policy.Resolve(c, transcript.Identity{ID: c.Param("id")})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if who.ID != c.Param("id") {
		utils.RespondError(c, apperrors.ErrForbidden)
		return
	}

	if err := h.service.Touch(c.Request.Context(), who.ID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
