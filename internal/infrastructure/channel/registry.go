package channel

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/infrastructure/config"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

// Registry resolves the adapter for a platform
type Registry struct {
	adapters map[integration.Platform]integration.Adapter
}

// NewRegistry creates a registry of the given adapters
func NewRegistry(adapters ...integration.Adapter) *Registry {
	r := &Registry{adapters: make(map[integration.Platform]integration.Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// NewDefaultRegistry registers every supported platform
func NewDefaultRegistry(cfg *config.Config, logger *zap.Logger) *Registry {
	return NewRegistry(
		NewWooCommerceAdapter(cfg.HTTP.WriteTimeout, logger.Named("woocommerce")),
		NewWhatsAppAdapter(messaging.NewWhatsAppClient(cfg.WhatsApp)),
		NewMetaCatalogAdapter(integration.PlatformFacebook, cfg.WhatsApp, logger.Named("facebook")),
		NewMetaCatalogAdapter(integration.PlatformInstagram, cfg.WhatsApp, logger.Named("instagram")),
	)
}

// Get returns the adapter for a platform
func (r *Registry) Get(p integration.Platform) (integration.Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotSupported, p)
	}
	return a, nil
}
