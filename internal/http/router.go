package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lexloop/lexloop/internal/service"
	"github.com/lexloop/lexloop/internal/store"
	"github.com/lexloop/lexloop/pkg/httpx"
	"github.com/lexloop/lexloop/pkg/jwtx"
	"github.com/lexloop/lexloop/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.Signer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService       *service.AuthService
	GroupService      *service.GroupService
	MembershipService *service.MembershipService
	InviteService     *service.InviteService
}

func NewRouter(signer *jwtx.Signer, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerGroups()
	r.registerInvites()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	auth := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get the strict limit: they are the brute-force
	// surface.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(auth.Register),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(auth.Login),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(auth.Refresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(auth.Logout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
}

func (r *Router) registerGroups() {
	groups := &GroupsHandler{
		GroupService:      r.GroupService,
		MembershipService: r.MembershipService,
	}
	authn := httpx.AuthnMiddleware(r.signer)

	r.Mux.Handle("POST /v1/groups",
		httpx.Chain(http.HandlerFunc(groups.Create),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/groups",
		httpx.Chain(http.HandlerFunc(groups.ListMine),
			authn, httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /v1/groups/{id}",
		httpx.Chain(http.HandlerFunc(groups.Details),
			authn, httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("POST /v1/groups/join",
		httpx.Chain(http.HandlerFunc(groups.Join),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/groups/{id}/joincode/reset",
		httpx.Chain(http.HandlerFunc(groups.ResetJoinCode),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/groups/{id}/members",
		httpx.Chain(http.HandlerFunc(groups.ListMembers),
			authn, httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("DELETE /v1/groups/{id}/members/{userID}",
		httpx.Chain(http.HandlerFunc(groups.RemoveMember),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/groups/{id}/leave",
		httpx.Chain(http.HandlerFunc(groups.Leave),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
}

func (r *Router) registerInvites() {
	invites := &InvitesHandler{InviteService: r.InviteService}
	authn := httpx.AuthnMiddleware(r.signer)

	r.Mux.Handle("POST /v1/groups/{id}/invites",
		httpx.Chain(http.HandlerFunc(invites.Create),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/groups/{id}/invites",
		httpx.Chain(http.HandlerFunc(invites.List),
			authn, httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("DELETE /v1/groups/{id}/invites/{inviteID}",
		httpx.Chain(http.HandlerFunc(invites.Revoke),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/groups/{id}/invites/{inviteID}/recreate",
		httpx.Chain(http.HandlerFunc(invites.Recreate),
			authn, httpx.RateLimitByUser(httpx.ModerateLimit),
		))

	// Acceptance is rate limited by IP: guessing tokens must stay
	// expensive even with a valid account.
	r.Mux.Handle("POST /v1/invites/accept",
		httpx.Chain(http.HandlerFunc(invites.Accept),
			authn, httpx.RateLimitByIP(httpx.StrictLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store))
}
