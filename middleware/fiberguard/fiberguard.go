// Package fiberguard exposes the session route guards as native Fiber
// handlers for applications that mount gofiber directly instead of
// going through the router abstraction.
package fiberguard

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	session "github.com/urbanease/go-session"
)

// Config wires a Guard.
type Config struct {
	Manager *session.Manager
	Routes  session.Config

	// Logger defaults to the manager's noop-safe default.
	Logger session.Logger

	// PlaceholderHandler runs when the session is still bootstrapping.
	// Defaults to a 503 JSON body.
	PlaceholderHandler fiber.Handler

	// ErrorHandler maps guard evaluation failures to a response.
	ErrorHandler func(*fiber.Ctx, error) error
}

// Guard evaluates session state per request and either passes through,
// renders the loading placeholder, or redirects.
type Guard struct {
	manager     *session.Manager
	cfg         session.Config
	logger      session.Logger
	placeholder fiber.Handler
	errHandler  func(*fiber.Ctx, error) error
}

// New builds a Guard from cfg. Manager and Routes are required.
func New(cfg Config) *Guard {
	g := &Guard{
		manager:     cfg.Manager,
		cfg:         cfg.Routes,
		logger:      cfg.Logger,
		placeholder: cfg.PlaceholderHandler,
		errHandler:  cfg.ErrorHandler,
	}

	if g.logger == nil {
		g.logger = session.NoopLogger{}
	}
	if g.placeholder == nil {
		g.placeholder = defaultPlaceholder
	}
	if g.errHandler == nil {
		g.errHandler = defaultErrorHandler
	}

	return g
}

// Protected admits any authenticated user.
func (g *Guard) Protected() fiber.Handler {
	return g.apply(session.RequireAuth(g.cfg), false)
}

// RoleProtected admits authenticated users holding one of the allowed
// roles. Wrong-role users are sent to their own landing page, not to
// login.
func (g *Guard) RoleProtected(allowed ...session.Role) fiber.Handler {
	return g.apply(session.RequireRoles(g.cfg, allowed...), false)
}

// AnonymousOnly admits only signed-out users. Authenticated users are
// bounced to the carried rejected route when one exists, otherwise to
// their role landing page. The carried route is consumed either way.
func (g *Guard) AnonymousOnly() fiber.Handler {
	return g.apply(session.RequireAnonymous(g.cfg), true)
}

func (g *Guard) apply(guard session.Guard, consumeCarried bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := g.manager.Snapshot()

		req := session.Request{
			Path: c.OriginalURL(),
			From: c.Cookies(g.rejectedRouteKey()),
		}

		decision := guard.Evaluate(snap, req)

		switch decision.Kind {
		case session.DecisionRender:
			if decision.Placeholder {
				return g.placeholder(c)
			}
			if user := snap.User; user != nil {
				c.Locals(session.TemplateUserKey, user)
				c.SetUserContext(session.WithContext(c.UserContext(), user))
			}
			return c.Next()

		case session.DecisionRedirect:
			if decision.From != "" {
				g.carryRejected(c, decision.From)
			}
			if consumeCarried && req.From != "" {
				g.clearCarried(c)
			}
			g.logger.Debug("guard redirect %s -> %s", req.Path, decision.Location)
			return c.Redirect(decision.Location, redirectStatus(c))

		default:
			return g.errHandler(c, errors.New(
				"unhandled guard decision",
				errors.CategoryInternal,
			).WithCode(errors.CodeInternal))
		}
	}
}

// PostLoginRedirect resolves where a just-authenticated user should
// land: the carried rejected route when usable, else the role landing
// page. The carried route is consumed.
func (g *Guard) PostLoginRedirect(c *fiber.Ctx, role session.Role) error {
	from := c.Cookies(g.rejectedRouteKey())
	if from != "" {
		g.clearCarried(c)
	}
	return c.Redirect(session.ResolveReturnTo(g.cfg, from, role), redirectStatus(c))
}

func (g *Guard) rejectedRouteKey() string {
	if key := g.cfg.GetRejectedRouteKey(); key != "" {
		return key
	}
	return "rejected_route"
}

func (g *Guard) carryRejected(c *fiber.Ctx, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     g.rejectedRouteKey(),
		Value:    path,
		Path:     "/",
		Expires:  time.Now().Add(5 * time.Minute),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (g *Guard) clearCarried(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     g.rejectedRouteKey(),
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func redirectStatus(c *fiber.Ctx) int {
	if c.Method() == fiber.MethodGet {
		return fiber.StatusFound
	}
	return fiber.StatusSeeOther
}

func defaultPlaceholder(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"status": "loading",
	})
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": rich.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}
