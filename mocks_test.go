package session_test

import (
	"context"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	session "github.com/urbanease/go-session"
)

// MockBackend implements session.AuthBackend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*session.LoginResult)
	return result, args.Error(1)
}

func (m *MockBackend) RegisterCustomer(ctx context.Context, payload session.CustomerRegistration) (*session.RegistrationResult, error) {
	args := m.Called(ctx, payload)
	result, _ := args.Get(0).(*session.RegistrationResult)
	return result, args.Error(1)
}

func (m *MockBackend) RegisterBusiness(ctx context.Context, payload session.BusinessRegistration) (*session.RegistrationResult, error) {
	args := m.Called(ctx, payload)
	result, _ := args.Get(0).(*session.RegistrationResult)
	return result, args.Error(1)
}

func (m *MockBackend) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) RefreshToken(ctx context.Context, refreshToken string) (*session.TokenGrant, error) {
	args := m.Called(ctx, refreshToken)
	grant, _ := args.Get(0).(*session.TokenGrant)
	return grant, args.Error(1)
}

func (m *MockBackend) VerifyEmail(ctx context.Context, token string) (*session.MessageResult, error) {
	args := m.Called(ctx, token)
	result, _ := args.Get(0).(*session.MessageResult)
	return result, args.Error(1)
}

func (m *MockBackend) ResendVerification(ctx context.Context, email string) (*session.MessageResult, error) {
	args := m.Called(ctx, email)
	result, _ := args.Get(0).(*session.MessageResult)
	return result, args.Error(1)
}

func (m *MockBackend) RequestPasswordReset(ctx context.Context, email string) (*session.MessageResult, error) {
	args := m.Called(ctx, email)
	result, _ := args.Get(0).(*session.MessageResult)
	return result, args.Error(1)
}

func (m *MockBackend) ResetPassword(ctx context.Context, token, newPassword string) (*session.MessageResult, error) {
	args := m.Called(ctx, token, newPassword)
	result, _ := args.Get(0).(*session.MessageResult)
	return result, args.Error(1)
}

func (m *MockBackend) GetCurrentProfile(ctx context.Context) (*session.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*session.User)
	return user, args.Error(1)
}

// MockCredentialStore implements session.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Store(ctx context.Context, accessToken string, expiresIn time.Duration, refreshToken string) error {
	args := m.Called(ctx, accessToken, expiresIn, refreshToken)
	return args.Error(0)
}

func (m *MockCredentialStore) ValidToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) RefreshToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// testConfig implements session.Config with the default route map.
type testConfig struct {
	login            string
	register         string
	home             string
	customerLanding  string
	businessLanding  string
	rejectedRouteKey string
}

func newTestConfig() *testConfig {
	return &testConfig{
		login:            "/login",
		register:         "/register",
		home:             "/",
		customerLanding:  "/customer/profile",
		businessLanding:  "/business/profile",
		rejectedRouteKey: "rejected_route",
	}
}

func (c *testConfig) GetLoginPath() string           { return c.login }
func (c *testConfig) GetRegisterPath() string        { return c.register }
func (c *testConfig) GetHomePath() string            { return c.home }
func (c *testConfig) GetCustomerLandingPath() string { return c.customerLanding }
func (c *testConfig) GetBusinessLandingPath() string { return c.businessLanding }
func (c *testConfig) GetRejectedRouteKey() string    { return c.rejectedRouteKey }

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

// sinkRecorder captures activity events in order.
type sinkRecorder struct {
	events []session.ActivityEvent
}

func (s *sinkRecorder) Record(ctx context.Context, event session.ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *sinkRecorder) types() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, string(e.EventType))
	}
	return out
}
