package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"resteasy/internal/engine"
	"resteasy/internal/repositories"
)

type CapabilityServiceInterface interface {
	Load(subjectID uuid.UUID, message string, surface engine.Surface, schema *engine.Schema, assessment *engine.AssessmentSnapshot, ctx context.Context) *engine.CapabilityContext
}

func NewCapabilityService(vaultRepo repositories.VaultRepositoryInterface, logger *zap.Logger) CapabilityServiceInterface {
	return &CapabilityService{vaultRepo: vaultRepo, logger: logger}
}

type CapabilityService struct {
	vaultRepo repositories.VaultRepositoryInterface
	logger    *zap.Logger
}

// Load gathers the three capability facets. The vault fetches run
// concurrently; a failed facet degrades to its zero value instead of failing
// the turn.
func (s *CapabilityService) Load(subjectID uuid.UUID, message string, surface engine.Surface, schema *engine.Schema, assessment *engine.AssessmentSnapshot, ctx context.Context) *engine.CapabilityContext {
	var savedDocIDs, excludedDocIDs []string

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ids, err := s.vaultRepo.ListDocumentTypeIDs(subjectID, groupCtx)
		if err != nil {
			s.logger.Warn("vault documents unavailable", zap.Error(err))
			return nil
		}
		savedDocIDs = ids
		return nil
	})
	group.Go(func() error {
		ids, err := s.vaultRepo.ListExcludedTypeIDs(subjectID, groupCtx)
		if err != nil {
			s.logger.Warn("vault exclusions unavailable", zap.Error(err))
			return nil
		}
		excludedDocIDs = ids
		return nil
	})
	_ = group.Wait()

	return &engine.CapabilityContext{
		Vault:      engine.BuildVaultContext(savedDocIDs, excludedDocIDs),
		Report:     engine.BuildReportContext(assessment),
		Navigation: engine.BuildNavigationContext(),
		Route:      engine.ResolveRoute(message, schema, surface),
	}
}
