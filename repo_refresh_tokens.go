package account

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens stores the single stateful token row per issuer. Rotate and
// SetStatus are conditional single-row updates and return the affected row
// count so callers can distinguish a lost race from a storage failure.
type RefreshTokens interface {
	GetByIssuer(ctx context.Context, issuer uuid.UUID) (*RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	StatusByToken(ctx context.Context, token string) (*TokenStatus, error)
	Insert(ctx context.Context, record *RefreshToken) error
	Rotate(ctx context.Context, issuer uuid.UUID, token string) (int64, error)
	SetStatusByToken(ctx context.Context, token string, status TokenStatus) (int64, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(r *RefreshToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.Issuer
		},
		SetID: func(r *RefreshToken, id uuid.UUID) {
			if r != nil {
				r.Issuer = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &refreshTokens{Repository: repo, db: db}
}

func (r *refreshTokens) GetByIssuer(ctx context.Context, issuer uuid.UUID) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.issuer = ?", issuer).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *refreshTokens) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// StatusByToken returns nil for unknown or already-rotated tokens; callers
// must treat nil as invalid rather than as an error.
func (r *refreshTokens) StatusByToken(ctx context.Context, token string) (*TokenStatus, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Column("status").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record.Status, nil
}

func (r *refreshTokens) Insert(ctx context.Context, record *RefreshToken) error {
	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	return err
}

// Rotate overwrites the issuer's token and reactivates the row in one
// conditional update, so a concurrent Block cannot interleave into a stale
// token+status pair.
func (r *refreshTokens) Rotate(ctx context.Context, issuer uuid.UUID, token string) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("token = ?", token).
		Set("status = ?", TokenActive).
		Set("modified_at = ?", time.Now()).
		Where("issuer = ?", issuer).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokens) SetStatusByToken(ctx context.Context, token string, status TokenStatus) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("status = ?", status).
		Set("modified_at = ?", time.Now()).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
