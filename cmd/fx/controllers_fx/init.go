package controllers_fx

import (
	"go.uber.org/fx"

	"resteasy/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewRemyController),
	fx.Provide(controllers.NewIntakeController))
