package fiberguard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/urbanease/go-session"
	"github.com/urbanease/go-session/backendtest"
	"github.com/urbanease/go-session/credstore"
	"github.com/urbanease/go-session/middleware/fiberguard"
)

type routes struct{}

func (routes) GetLoginPath() string           { return "/login" }
func (routes) GetRegisterPath() string        { return "/register" }
func (routes) GetHomePath() string            { return "/" }
func (routes) GetCustomerLandingPath() string { return "/customer/profile" }
func (routes) GetBusinessLandingPath() string { return "/business/profile" }
func (routes) GetRejectedRouteKey() string    { return "rejected_route" }

func anonymousManager(t *testing.T) *session.Manager {
	t.Helper()

	manager := session.NewManager(backendtest.New(), credstore.NewMemoryStore()).
		WithLogger(session.NoopLogger{})
	manager.Bootstrap(context.Background())
	return manager
}

func authenticatedManager(t *testing.T, role session.Role) *session.Manager {
	t.Helper()

	backend := backendtest.New()
	backend.Seed("maya@example.com", "password123", role)

	manager := session.NewManager(backend, credstore.NewMemoryStore()).
		WithLogger(session.NoopLogger{})
	manager.Bootstrap(context.Background())

	_, err := manager.Login(context.Background(), session.LoginRequest{
		Email:    "maya@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	return manager
}

func newGuard(manager *session.Manager) *fiberguard.Guard {
	return fiberguard.New(fiberguard.Config{
		Manager: manager,
		Routes:  routes{},
		Logger:  session.NoopLogger{},
	})
}

func okHandler(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func TestProtectedAnonymousRedirectsToLogin(t *testing.T) {
	app := fiber.New()
	guard := newGuard(anonymousManager(t))
	app.Get("/orders/:id", guard.Protected(), okHandler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/7", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	// The rejected route is carried so login can return the user there.
	cookies := res.Header.Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "rejected_route=")
	assert.Contains(t, cookies[0], "/orders/7")
}

func TestProtectedAuthenticatedPassesThrough(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleCustomer))

	app.Get("/orders", guard.Protected(), func(c *fiber.Ctx) error {
		user, ok := c.Locals(session.TemplateUserKey).(*session.User)
		require.True(t, ok)
		return c.SendString(user.Email)
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestProtectedWhileLoadingRendersPlaceholder(t *testing.T) {
	// No Bootstrap call: the session outcome is still unknown.
	manager := session.NewManager(backendtest.New(), credstore.NewMemoryStore()).
		WithLogger(session.NoopLogger{})

	app := fiber.New()
	guard := newGuard(manager)
	app.Get("/orders", guard.Protected(), okHandler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.NoError(t, err)

	// Never redirect on incomplete information.
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestRoleProtectedWrongRoleGoesToOwnLanding(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleCustomer))
	app.Get("/business/dashboard", guard.RoleProtected(session.RoleBusiness), okHandler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/business/dashboard", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/customer/profile", res.Header.Get("Location"))
}

func TestRoleProtectedMatchingRolePasses(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleBusiness))
	app.Get("/business/dashboard", guard.RoleProtected(session.RoleBusiness), okHandler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/business/dashboard", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAnonymousOnlyAuthenticatedPrefersCarriedRoute(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleCustomer))
	app.Get("/login", guard.AnonymousOnly(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "rejected_route", Value: "/orders/7"})

	res, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/orders/7", res.Header.Get("Location"))

	// The carried route is consumed on use.
	cookies := res.Header.Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "rejected_route=")
}

func TestAnonymousOnlyAuthenticatedFallsBackToLanding(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleBusiness))
	app.Get("/login", guard.AnonymousOnly(), okHandler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/business/profile", res.Header.Get("Location"))
}

func TestAnonymousOnlyAnonymousRenders(t *testing.T) {
	app := fiber.New()
	guard := newGuard(anonymousManager(t))
	app.Get("/login", guard.AnonymousOnly(), okHandler)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAnonymousOnlyAnonymousKeepsCarriedRoute(t *testing.T) {
	app := fiber.New()
	guard := newGuard(anonymousManager(t))
	app.Get("/login", guard.AnonymousOnly(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "rejected_route", Value: "/orders/7"})

	res, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Rendering the form must not consume the carried route: it is
	// still needed once the form is submitted.
	assert.Empty(t, res.Header.Values("Set-Cookie"))
}

func TestPostLoginRedirectConsumesCarriedRoute(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleCustomer))
	app.Post("/login", func(c *fiber.Ctx) error {
		return guard.PostLoginRedirect(c, session.RoleCustomer)
	})

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "rejected_route", Value: "/orders/7"})

	res, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/orders/7", res.Header.Get("Location"))

	cookies := res.Header.Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "rejected_route=")
}

func TestPostLoginRedirectFallsBackToLanding(t *testing.T) {
	app := fiber.New()
	guard := newGuard(authenticatedManager(t, session.RoleBusiness))
	app.Post("/login", func(c *fiber.Ctx) error {
		return guard.PostLoginRedirect(c, session.RoleBusiness)
	})

	res, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/business/profile", res.Header.Get("Location"))
}
