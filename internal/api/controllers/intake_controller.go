package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resteasy/internal/models/request_models"
	"resteasy/internal/services"
	"resteasy/pkg/middleware"
	"resteasy/pkg/utils"
)

type IntakeController struct {
	intakeService services.IntakeServiceInterface
}

func NewIntakeController(intakeService services.IntakeServiceInterface) *IntakeController {
	return &IntakeController{
		intakeService: intakeService,
	}
}

func (ic *IntakeController) IntakeHandler(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Missing subject identity")
		return
	}

	var req request_models.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := ic.intakeService.HandleIntake(subjectID, req, c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Intake processed")
}
