package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"resteasy/cmd/fx/controllers_fx"
	"resteasy/cmd/fx/core_fx"
	"resteasy/cmd/fx/db_fx"
	"resteasy/cmd/fx/llm_fx"
	"resteasy/cmd/fx/redis_fx"
	"resteasy/cmd/fx/remy_fx"
	"resteasy/internal/api/controllers"
	"resteasy/internal/config"
	"resteasy/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := fx.New(
		core_fx.Module,
		db_fx.Module,
		redis_fx.Module,
		llm_fx.Module,
		remy_fx.Module,
		controllers_fx.Module,

		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Printf("Starting HTTP server at :%s", cfg.Port)
				if err := engine.Run(":" + cfg.Port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	remyController *controllers.RemyController,
	intakeController *controllers.IntakeController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, remyController, intakeController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	remyController *controllers.RemyController,
	intakeController *controllers.IntakeController) {

	remyGroup := r.Group("/remy")
	remyGroup.Use(middleware.JWTAuthMiddleware())
	remyGroup.POST("/surface", remyController.SurfaceHandler)
	remyGroup.POST("/nudges/dismiss", remyController.DismissNudgeHandler)
	remyGroup.POST("/actions/ack", remyController.AckActionHandler)
	remyGroup.POST("/chat", remyController.ChatHandler)

	agentGroup := r.Group("/agent")
	agentGroup.Use(middleware.JWTAuthMiddleware())
	agentGroup.POST("", intakeController.IntakeHandler)
}
