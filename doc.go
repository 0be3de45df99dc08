// Package auth implements account management for a single service:
// credential exchange for JWT access and refresh tokens, invitations,
// password resets and soft removal of users.
//
// Accounts:
//   - User rows are never deleted. Removal stamps deleted_at and the
//     default finders hide the row; Users.WithDeleted includes it. The
//     email of a removed account stays taken.
//   - AccountStateOf derives pending, active, disabled or removed from the
//     persisted fields and CanTransition guards every lifecycle change.
//   - Invited accounts hold a placeholder hash that can never verify, so
//     they cannot sign in until registration completes.
//
// Tokens:
//   - TokenService issues HS256 access tokens carrying email and role, and
//     identity-free refresh tokens recorded in the refresh token ledger.
//   - TimedTokenCodec signs the one-off password reset and registration
//     tokens; the caller picks the maximum age when decoding.
//
// Commands:
//   - Every operation is a message plus handler pair (InviteUserMessage and
//     InviteUserHandler, ...). Handlers accept a Logger and an ActivitySink;
//     sinks run best-effort so auditing never blocks a request.
//   - Email delivery goes through a Deliverer that must not block; the
//     tasks package provides a redis backed implementation.
package auth
