// Package account implements the account lifecycle and token issuance
// engine: registration, email verification, sign in with optional step-up
// verification, password reset, and refresh token rotation.
//
// Lifecycle flows:
//   - Every flow is a command handler (RegisterHandler, VerifyEmailHandler,
//     etc) that runs its reads and writes inside a single RepositoryManager
//     transaction. A failed precondition, storage error, or notifier error
//     aborts the transaction and surfaces a categorized error.
//   - Unverified accounts are provisional. A later registration for the same
//     email or username displaces them, and an unverified sign in deletes the
//     account and reports not-found so existence is never leaked.
//
// Tokens:
//   - Access tokens are short lived signed claims (TokenService) validated
//     without a lookup. Refresh tokens are opaque strings whose validity is a
//     server side status row (RefreshService); blocking is a status flip and
//     rotation overwrites the single row per issuer.
//
// External collaborators (Notifier, SessionStore) are narrow interfaces so
// tests can run against doubles and transports stay swappable.
package account
