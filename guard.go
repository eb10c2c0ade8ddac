package session

import "strings"

// DecisionKind discriminates guard outcomes. There is deliberately no
// third "retry" kind: guards are pure functions of the current snapshot.
type DecisionKind string

const (
	// DecisionRender allows the requested view (or, while the session is
	// loading, a neutral placeholder).
	DecisionRender DecisionKind = "render"
	// DecisionRedirect sends the navigation elsewhere.
	DecisionRedirect DecisionKind = "redirect"
)

// Decision is the output of a guard evaluation. Not persisted.
type Decision struct {
	Kind DecisionKind
	// Placeholder marks a render that should show a neutral loading view
	// instead of the requested one. Never redirect on incomplete
	// information: this is what prevents a returning user from being
	// bounced to login before bootstrap settles.
	Placeholder bool
	// Location is the redirect target.
	Location string
	// From carries the originally requested location so it can be
	// returned to after login.
	From string
}

// Render allows the requested view.
func Render() Decision {
	return Decision{Kind: DecisionRender}
}

// RenderPlaceholder renders the neutral loading view.
func RenderPlaceholder() Decision {
	return Decision{Kind: DecisionRender, Placeholder: true}
}

// RedirectTo redirects to location, optionally carrying the origin.
func RedirectTo(location, from string) Decision {
	return Decision{Kind: DecisionRedirect, Location: location, From: from}
}

// Request describes the navigation a guard is gating.
type Request struct {
	// Path is the requested location.
	Path string
	// From is the origin carried in navigation state, if any.
	From string
}

// Guard decides whether to render a requested view or redirect, purely as
// a function of the session snapshot and the view's declared requirement.
type Guard interface {
	Evaluate(snap Snapshot, req Request) Decision
}

// GuardFunc adapts a function into a Guard.
type GuardFunc func(snap Snapshot, req Request) Decision

// Evaluate satisfies the Guard interface.
func (f GuardFunc) Evaluate(snap Snapshot, req Request) Decision {
	return f(snap, req)
}

// RequireAuth gates views that need any authenticated user. Anonymous
// visitors are sent to the login screen with the requested location
// carried for the post-login return trip.
func RequireAuth(cfg Config) Guard {
	return GuardFunc(func(snap Snapshot, req Request) Decision {
		if snap.Loading() {
			return RenderPlaceholder()
		}
		if !snap.Authenticated() {
			return RedirectTo(loginPath(cfg), req.Path)
		}
		return Render()
	})
}

// RequireRoles gates views restricted to specific roles. An authenticated
// user with the wrong role is redirected to their own landing area, not
// to login: they are authenticated, just not authorized for this view.
func RequireRoles(cfg Config, allowed ...Role) Guard {
	return GuardFunc(func(snap Snapshot, req Request) Decision {
		if snap.Loading() {
			return RenderPlaceholder()
		}
		if !snap.Authenticated() {
			return RedirectTo(loginPath(cfg), req.Path)
		}
		if !snap.User.HasAnyRole(allowed...) {
			return RedirectTo(LandingPath(cfg, snap.Role()), "")
		}
		return Render()
	})
}

// RequireAnonymous gates views like login and registration that make no
// sense for an authenticated user, who is redirected to the location they
// originally intended or else to their role's landing area.
func RequireAnonymous(cfg Config) Guard {
	return GuardFunc(func(snap Snapshot, req Request) Decision {
		if snap.Loading() {
			return RenderPlaceholder()
		}
		if snap.Authenticated() {
			return RedirectTo(ResolveReturnTo(cfg, req.From, snap.Role()), "")
		}
		return Render()
	})
}

// ResolveReturnTo picks the post-login destination: prefer the carried
// "from" location over the role default, but never when that location is
// itself an auth-only screen, which would loop straight back into login.
func ResolveReturnTo(cfg Config, from string, role Role) string {
	if from != "" && !isAuthScreen(cfg, from) {
		return from
	}
	return LandingPath(cfg, role)
}

func isAuthScreen(cfg Config, path string) bool {
	return path == loginPath(cfg) || strings.HasPrefix(path, registerPath(cfg))
}

func loginPath(cfg Config) string {
	return pathOrDefault(cfg.GetLoginPath(), DefaultLoginPath)
}

func registerPath(cfg Config) string {
	return pathOrDefault(cfg.GetRegisterPath(), DefaultRegisterPath)
}
