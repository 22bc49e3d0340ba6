// Package auth is the authentication and authorization core for the workqit
// job marketplace: credential storage, password policy, JWT session tokens,
// social sign-in linking, and the role based access gate.
//
// Accounts:
//   - One Account per person, keyed by normalized email and tagged with a
//     role from a closed set (job seeker, employer, mentor, student, admin).
//   - The auth provider tag (local, external, hybrid) is always derived from
//     the credential and linked external identity on the record; callers
//     never set it directly.
//
// Sessions:
//   - TokenService signs and validates HS256 JWTs carrying the account id,
//     email, and role. Tokens are stateless: logout clears the client cookie
//     but an issued token stays valid until expiry.
//   - RouteAuthenticator owns the cookie transport and builds the middleware
//     for protected and role gated routes. Authentication failures are
//     always 401; only a verified token with an insufficient role gets 403.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to describe
//     login, registration, verification, and role change events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
package auth
