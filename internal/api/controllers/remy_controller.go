package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resteasy/internal/models/request_models"
	"resteasy/internal/services"
	"resteasy/pkg/middleware"
	"resteasy/pkg/utils"
)

type RemyController struct {
	surfaceService services.SurfaceServiceInterface
	chatService    services.ChatServiceInterface
}

func NewRemyController(surfaceService services.SurfaceServiceInterface, chatService services.ChatServiceInterface) *RemyController {
	return &RemyController{
		surfaceService: surfaceService,
		chatService:    chatService,
	}
}

func (rc *RemyController) SurfaceHandler(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Missing subject identity")
		return
	}

	var req request_models.SurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	payload, err := rc.surfaceService.BuildSurface(subjectID, req, c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, payload, "Surface payload built successfully")
}

func (rc *RemyController) DismissNudgeHandler(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Missing subject identity")
		return
	}

	var req request_models.DismissNudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := rc.surfaceService.DismissNudge(subjectID, req, c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, receipt, "Nudge dismissed")
}

func (rc *RemyController) AckActionHandler(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Missing subject identity")
		return
	}

	var req request_models.AckActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := rc.surfaceService.AckAction(subjectID, req, c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, receipt, "Action acknowledged")
}

func (rc *RemyController) ChatHandler(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Missing subject identity")
		return
	}

	var req request_models.ChatTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := rc.chatService.HandleTurn(subjectID, req, c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response, "Chat turn completed")
}
