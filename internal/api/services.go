package api

import "github.com/reelvault/reelvault-server/internal/service"

// Services groups the service dependencies the HTTP layer needs.
type Services struct {
	Auth     *service.AuthService
	Session  *service.SessionService
	Clip     *service.ClipService
	Resolver *service.ResolverService
	Title    *service.TitleService
}
