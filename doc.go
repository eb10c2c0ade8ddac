// Package session provides a client-embedded session and authorization
// layer for the UrbanEase marketplace: credential persistence with expiry
// tracking, session bootstrap, the login/refresh/logout lifecycle, and
// route-gating decisions for role-specific areas of the application.
//
// Session lifecycle:
//   - Manager owns the process-wide session state and is its only writer.
//     It moves through a tagged set of states (uninitialized, bootstrapping,
//     anonymous, authenticated) so illegal combinations of loading/user
//     flags are unrepresentable.
//   - Bootstrap restores the session from durable storage at application
//     start. A valid stored credential hydrates the full profile from the
//     backend, falling back to the identity decoded from the token itself
//     so a transient network hiccup at boot does not force a logout.
//
// Credentials:
//   - CredentialStore is the only component that touches durable storage.
//     A token counts as valid only while now < expiry - 60s, and an
//     expired credential is purged the first time anyone asks for it.
//
// Guards:
//   - RequireAuth, RequireRoles, and RequireAnonymous are pure decision
//     functions over the current session snapshot. They never redirect
//     while the session is still loading, which prevents a returning user
//     from being bounced to the login screen before hydration completes.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Manager to
//     describe login, logout, refresh, and session-expiry events. Sinks run
//     best-effort (errors are logged) so you can forward to a store or
//     queue without blocking session operations.
package session
