package account

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// RefreshService manages long-lived refresh tokens. Each account owns at most
// one row; the token string itself is opaque to callers once minted.
type RefreshService struct {
	repo       RefreshTokens
	signingKey []byte
	logger     Logger
	now        func() time.Time
}

func NewRefreshService(repo RefreshTokens, signingKey []byte) *RefreshService {
	return &RefreshService{
		repo:       repo,
		signingKey: signingKey,
		logger:     defLogger{},
		now:        time.Now,
	}
}

func (s *RefreshService) WithLogger(logger Logger) *RefreshService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock overrides the time source. Test seam.
func (s *RefreshService) WithClock(now func() time.Time) *RefreshService {
	if now != nil {
		s.now = now
	}
	return s
}

// IssueOrRotate hands out the refresh token for an account. An existing
// active token is reused unchanged so concurrent sign-ins share one session
// lineage; a blocked token is replaced and reactivated.
func (s *RefreshService) IssueOrRotate(ctx context.Context, issuer uuid.UUID) (string, error) {
	existing, err := s.repo.GetByIssuer(ctx, issuer)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return s.issue(ctx, issuer)
		}
		return "", wrapStorage(err, "failed to look up refresh token")
	}

	if existing.Status == TokenActive {
		return existing.Token, nil
	}

	return s.Renew(ctx, issuer)
}

// Renew mints a fresh token for the issuer and reactivates the row. The old
// token string stops resolving immediately.
func (s *RefreshService) Renew(ctx context.Context, issuer uuid.UUID) (string, error) {
	token, err := s.mint(issuer)
	if err != nil {
		return "", err
	}

	rows, err := s.repo.Rotate(ctx, issuer, token)
	if err != nil {
		return "", wrapStorage(err, "failed to rotate refresh token")
	}
	if rows != 1 {
		return "", errNotFound("Refresh token not found")
	}

	return token, nil
}

// Status reports the stored status for a token string. A nil status means the
// token is unknown, either never issued or already rotated away.
func (s *RefreshService) Status(ctx context.Context, token string) (*TokenStatus, error) {
	status, err := s.repo.StatusByToken(ctx, token)
	if err != nil {
		return nil, wrapStorage(err, "failed to resolve refresh token status")
	}
	return status, nil
}

// Block marks a token as revoked. Returns false when the token string does
// not resolve to any stored row.
func (s *RefreshService) Block(ctx context.Context, token string) (bool, error) {
	rows, err := s.repo.SetStatusByToken(ctx, token, TokenBlocked)
	if err != nil {
		return false, wrapStorage(err, "failed to block refresh token")
	}
	return rows > 0, nil
}

func (s *RefreshService) issue(ctx context.Context, issuer uuid.UUID) (string, error) {
	token, err := s.mint(issuer)
	if err != nil {
		return "", err
	}

	now := s.now()
	record := &RefreshToken{
		Issuer:     issuer,
		Token:      token,
		Status:     TokenActive,
		CreatedAt:  now,
		ModifiedAt: &now,
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return "", wrapStorage(err, "failed to store refresh token")
	}

	return token, nil
}

// mint signs a minimal {sub, iat, jti} payload. No exp claim: lifetime is
// governed by the stored status, not by the token itself. The jti keeps every
// rotation distinct even within the same second.
func (s *RefreshService) mint(issuer uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": issuer.String(),
		"iat": s.now().Unix(),
		"jti": NewID().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign refresh token")
	}
	return signed, nil
}
