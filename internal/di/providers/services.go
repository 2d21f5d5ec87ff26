package providers

import (
	"github.com/samber/do/v2"

	"github.com/reelvault/reelvault-server/internal/auth"
	"github.com/reelvault/reelvault-server/internal/config"
	"github.com/reelvault/reelvault-server/internal/logger"
	"github.com/reelvault/reelvault-server/internal/ratelimit"
	"github.com/reelvault/reelvault-server/internal/service"
)

// ProvideSessionService provides the refresh-token session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	loginLimiter := ratelimit.New(cfg.Auth.LoginRatePerSecond, cfg.Auth.LoginRateBurst)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, loginLimiter, log.Logger), nil
}

// ProvideResolverService provides the collection and tag resolver.
func ProvideResolverService(i do.Injector) (*service.ResolverService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewResolverService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideTitleService provides the page title fetcher.
func ProvideTitleService(i do.Injector) (*service.TitleService, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTitleService(log.Logger), nil
}

// ProvideClipService provides the clip service.
func ProvideClipService(i do.Injector) (*service.ClipService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*service.ResolverService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	titles := do.MustInvoke[*service.TitleService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewClipService(
		storeHandle.Store,
		resolver,
		sseHandle.Manager,
		indexHandle.ClipIndex,
		titles,
		log.Logger,
	), nil
}
