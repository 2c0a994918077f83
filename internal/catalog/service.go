package catalog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

var catalogTracer = otel.Tracer("barbershop.internal.catalog")

// Loader is the read surface the booking wizard depends on.
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// CatalogService serves the combined catalog with a cache in front of the
// repository. The booking wizard loads through it every time it opens.
type CatalogService struct {
	repo   Repository
	cache  Cache
	logger *logging.Logger
}

// NewService constructs a catalog service. cache may be nil, in which case
// every load hits the repository.
func NewService(repo Repository, cache Cache, logger *logging.Logger) *CatalogService {
	if repo == nil {
		panic("catalog: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

// Load returns active services (price ascending) and bookable professionals.
// A cache hit short-circuits the repository; repository failures propagate so
// the wizard can surface its retry state.
func (s *CatalogService) Load(ctx context.Context) (*Catalog, error) {
	ctx, span := catalogTracer.Start(ctx, "catalog.load")
	defer span.End()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx); err == nil && cached != nil {
			span.SetAttributes(attribute.Bool("barbershop.cache_hit", true))
			return cached, nil
		} else if err != nil {
			s.logger.Warn("catalog cache read failed", "error", err)
		}
	}

	services, err := s.repo.ListActiveServices(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("catalog: load services: %w", err)
	}
	professionals, err := s.repo.ListBookableProfessionals(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("catalog: load professionals: %w", err)
	}

	cat := &Catalog{Services: services, Professionals: professionals}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cat); err != nil {
			s.logger.Warn("catalog cache write failed", "error", err)
		}
	}
	span.SetAttributes(
		attribute.Int("barbershop.services", len(services)),
		attribute.Int("barbershop.professionals", len(professionals)),
	)
	return cat, nil
}

// Invalidate drops the cached catalog. Called after admin mutations.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidate failed", "error", err)
	}
}

var _ Loader = (*CatalogService)(nil)
