package remy_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resteasy/internal/config"
	"resteasy/internal/repositories"
	"resteasy/internal/services"
	"resteasy/pkg/llm"
	"resteasy/pkg/ratelimit"
)

var Module = fx.Provide(
	provideAssessmentRepo,
	provideSchemaRepo,
	provideProfileRepo,
	providePreferenceRepo,
	provideConversationRepo,
	provideVaultRepo,
	provideEventRepo,
	provideCapabilityService,
	provideSurfaceService,
	provideChatService,
	provideIntakeService,
)

func provideAssessmentRepo(db *gorm.DB) repositories.AssessmentRepositoryInterface {
	return repositories.NewAssessmentRepository(db)
}

func provideSchemaRepo(db *gorm.DB) repositories.SchemaRepositoryInterface {
	return repositories.NewSchemaRepository(db)
}

func provideProfileRepo(db *gorm.DB) repositories.ProfileRepositoryInterface {
	return repositories.NewProfileRepository(db)
}

func providePreferenceRepo(db *gorm.DB) repositories.PreferenceRepositoryInterface {
	return repositories.NewPreferenceRepository(db)
}

func provideConversationRepo(db *gorm.DB) repositories.ConversationRepositoryInterface {
	return repositories.NewConversationRepository(db)
}

func provideVaultRepo(db *gorm.DB) repositories.VaultRepositoryInterface {
	return repositories.NewVaultRepository(db)
}

func provideEventRepo(db *gorm.DB) repositories.EventRepositoryInterface {
	return repositories.NewEventRepository(db)
}

func provideCapabilityService(vaultRepo repositories.VaultRepositoryInterface, logger *zap.Logger) services.CapabilityServiceInterface {
	return services.NewCapabilityService(vaultRepo, logger)
}

func provideSurfaceService(
	assessmentRepo repositories.AssessmentRepositoryInterface,
	schemaRepo repositories.SchemaRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	preferenceRepo repositories.PreferenceRepositoryInterface,
	eventRepo repositories.EventRepositoryInterface,
	cfg *config.Config,
	logger *zap.Logger,
) services.SurfaceServiceInterface {
	return services.NewSurfaceService(assessmentRepo, schemaRepo, profileRepo, preferenceRepo, eventRepo, cfg, logger)
}

func provideChatService(
	assessmentRepo repositories.AssessmentRepositoryInterface,
	schemaRepo repositories.SchemaRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	preferenceRepo repositories.PreferenceRepositoryInterface,
	conversationRepo repositories.ConversationRepositoryInterface,
	eventRepo repositories.EventRepositoryInterface,
	capabilityService services.CapabilityServiceInterface,
	selector *llm.Selector,
	invoker *llm.Invoker,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	logger *zap.Logger,
) services.ChatServiceInterface {
	return services.NewChatService(
		assessmentRepo, schemaRepo, profileRepo, preferenceRepo, conversationRepo, eventRepo,
		capabilityService, selector, invoker, limiter, cfg, logger)
}

func provideIntakeService(
	assessmentRepo repositories.AssessmentRepositoryInterface,
	schemaRepo repositories.SchemaRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	logger *zap.Logger,
) services.IntakeServiceInterface {
	return services.NewIntakeService(assessmentRepo, schemaRepo, profileRepo, logger)
}
