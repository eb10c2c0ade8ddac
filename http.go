package session

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteGuards exposes the guard variants as go-router middleware,
// handling the redirect bookkeeping (carried origin, status codes) that
// the pure guard decisions leave to the transport.
type RouteGuards struct {
	manager *Manager
	cfg     Config
	Logger  Logger
	// PlaceholderHandler renders the neutral loading view while the
	// session is still bootstrapping.
	PlaceholderHandler func(c router.Context) error
	ErrorHandler       func(c router.Context, err error) error
}

// NewRouteGuards wires guards against the manager's snapshots.
func NewRouteGuards(manager *Manager, cfg Config) (*RouteGuards, error) {
	if manager == nil {
		return nil, errors.New("manager is required", errors.CategoryBadInput)
	}

	g := &RouteGuards{
		manager: manager,
		cfg:     cfg,
		Logger:  defLogger{},
	}

	g.PlaceholderHandler = g.defaultPlaceholderHandler
	g.ErrorHandler = g.defaultErrHandler

	return g, nil
}

// Protected gates a route behind any authenticated user.
func (g *RouteGuards) Protected() router.MiddlewareFunc {
	return g.apply(RequireAuth(g.cfg), false)
}

// RoleProtected gates a route behind specific roles.
func (g *RouteGuards) RoleProtected(allowed ...Role) router.MiddlewareFunc {
	return g.apply(RequireRoles(g.cfg, allowed...), false)
}

// AnonymousOnly gates login/registration style routes that authenticated
// users should be bounced away from.
func (g *RouteGuards) AnonymousOnly() router.MiddlewareFunc {
	return g.apply(RequireAnonymous(g.cfg), true)
}

func (g *RouteGuards) apply(guard Guard, consumeCarried bool) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := Request{Path: c.OriginalURL()}
			if consumeCarried {
				req.From = c.Cookies(g.rejectedRouteKey())
			}

			decision := guard.Evaluate(g.manager.Snapshot(), req)

			if decision.Kind == DecisionRender {
				if decision.Placeholder {
					if err := g.PlaceholderHandler(c); err != nil {
						return g.ErrorHandler(c, err)
					}
					return nil
				}
				return next(c)
			}

			if decision.From != "" {
				g.SetRedirect(c)
			}
			if consumeCarried {
				g.cookieDel(c, g.rejectedRouteKey())
			}

			g.Logger.Info(
				"Guard redirect",
				"path", c.OriginalURL(),
				"to", decision.Location,
			)

			if err := c.Redirect(decision.Location, redirectStatus(c)); err != nil {
				return g.ErrorHandler(c, err)
			}
			return nil
		}
	}
}

// SetRedirect remembers the rejected route so login can return to it.
func (g *RouteGuards) SetRedirect(c router.Context) {
	rejectedRoute := g.rejectedRouteKey()

	g.Logger.Debug("Setting redirect cookie", "key", rejectedRoute, "path", c.OriginalURL())

	c.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect consumes the carried rejected route, or returns def.
func (g *RouteGuards) GetRedirect(c router.Context, def ...string) string {
	rejectedRoute := g.rejectedRouteKey()
	r := c.Cookies(rejectedRoute)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
	g.cookieDel(c, rejectedRoute)
	return r
}

// PostLoginRedirect resolves where a just-authenticated user should land:
// the carried origin when usable, else the role default.
func (g *RouteGuards) PostLoginRedirect(c router.Context, role Role) error {
	from := g.GetRedirect(c)
	return c.Redirect(ResolveReturnTo(g.cfg, from, role), redirectStatus(c))
}

func (g *RouteGuards) rejectedRouteKey() string {
	if key := g.cfg.GetRejectedRouteKey(); key != "" {
		return key
	}
	return "rejected_route"
}

func (g *RouteGuards) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuards) defaultPlaceholderHandler(c router.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]string{
		"status": "loading",
	})
}

func (g *RouteGuards) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	g.Logger.Info(
		"Guard error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(richErr.Code, map[string]string{
		"error": richErr.Message,
	})
}

func redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
