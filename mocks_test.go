package account_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fanari/go-account"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// memStore is a shared in-memory backing store for the fake repositories.
type memStore struct {
	mu            sync.Mutex
	accounts      map[uuid.UUID]*account.Account
	profiles      map[uuid.UUID]*account.Profile
	verifications map[uuid.UUID]*account.VerificationRequest
	refreshTokens map[uuid.UUID]*account.RefreshToken
}

func newMemStore() *memStore {
	return &memStore{
		accounts:      map[uuid.UUID]*account.Account{},
		profiles:      map[uuid.UUID]*account.Profile{},
		verifications: map[uuid.UUID]*account.VerificationRequest{},
		refreshTokens: map[uuid.UUID]*account.RefreshToken{},
	}
}

// memRepoManager satisfies account.RepositoryManager without a database.
// RunInTx simply invokes the function; the fakes ignore the tx handle.
type memRepoManager struct {
	store *memStore
}

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{store: newMemStore()}
}

func (m *memRepoManager) Validate() error { return nil }
func (m *memRepoManager) MustValidate()  {}

func (m *memRepoManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *memRepoManager) Accounts() account.Accounts {
	return &memAccounts{store: m.store}
}

func (m *memRepoManager) Profiles() account.Profiles {
	return &memProfiles{store: m.store}
}

func (m *memRepoManager) Verifications() account.Verifications {
	return &memVerifications{store: m.store}
}

func (m *memRepoManager) RefreshTokens() account.RefreshTokens {
	return &memRefreshTokens{store: m.store}
}

type memAccounts struct {
	store *memStore
}

func (a *memAccounts) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return a.GetTx(ctx, nil, id)
}

func (a *memAccounts) GetTx(_ context.Context, _ bun.IDB, id uuid.UUID) (*account.Account, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	if acc, ok := a.store.accounts[id]; ok {
		clone := *acc
		return &clone, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (a *memAccounts) GetByEmailTx(_ context.Context, _ bun.IDB, email string) (*account.Account, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	for _, acc := range a.store.accounts {
		if acc.Email == email {
			clone := *acc
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (a *memAccounts) CreateTx(_ context.Context, _ bun.IDB, record *account.Account) (*account.Account, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	clone := *record
	a.store.accounts[record.ID] = &clone
	return record, nil
}

func (a *memAccounts) MarkEmailVerifiedTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	acc, ok := a.store.accounts[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	acc.EmailVerified = true
	return nil
}

func (a *memAccounts) UpdatePasswordTx(_ context.Context, _ bun.IDB, id uuid.UUID, passwordHash string) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	acc, ok := a.store.accounts[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	acc.PasswordHash = passwordHash
	return nil
}

func (a *memAccounts) DeleteCascadeTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	delete(a.store.accounts, id)
	delete(a.store.profiles, id)
	for key, req := range a.store.verifications {
		if req.AccountID == id {
			delete(a.store.verifications, key)
		}
	}
	return nil
}

type memProfiles struct {
	store *memStore
}

func (p *memProfiles) GetTx(_ context.Context, _ bun.IDB, id uuid.UUID) (*account.Profile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	if prf, ok := p.store.profiles[id]; ok {
		clone := *prf
		return &clone, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (p *memProfiles) GetByUsernameTx(_ context.Context, _ bun.IDB, username string) (*account.Profile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	for _, prf := range p.store.profiles {
		if prf.Username == username {
			clone := *prf
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (p *memProfiles) CreateTx(_ context.Context, _ bun.IDB, record *account.Profile) (*account.Profile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	clone := *record
	p.store.profiles[record.ID] = &clone
	return record, nil
}

func (p *memProfiles) TouchTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	record, ok := p.store.profiles[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	record.ModifiedAt = time.Now()
	return nil
}

type memVerifications struct {
	store *memStore
}

func (v *memVerifications) GetLiveTx(_ context.Context, _ bun.IDB, purpose account.VerificationPurpose, accountID uuid.UUID) (*account.VerificationRequest, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for _, req := range v.store.verifications {
		if req.AccountID == accountID && req.Purpose == purpose {
			clone := *req
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (v *memVerifications) SaveTx(_ context.Context, _ bun.IDB, record *account.VerificationRequest) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for key, req := range v.store.verifications {
		if req.AccountID == record.AccountID && req.Purpose == record.Purpose {
			delete(v.store.verifications, key)
		}
	}
	clone := *record
	v.store.verifications[record.ID] = &clone
	return nil
}

func (v *memVerifications) MarkCodeValidatedTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	req, ok := v.store.verifications[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	req.CodeValidated = true
	return nil
}

func (v *memVerifications) DeleteForAccountTx(_ context.Context, _ bun.IDB, purpose account.VerificationPurpose, accountID uuid.UUID) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for key, req := range v.store.verifications {
		if req.AccountID == accountID && req.Purpose == purpose {
			delete(v.store.verifications, key)
		}
	}
	return nil
}

type memRefreshTokens struct {
	store *memStore
}

func (r *memRefreshTokens) GetByIssuer(_ context.Context, issuer uuid.UUID) (*account.RefreshToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if rec, ok := r.store.refreshTokens[issuer]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (r *memRefreshTokens) GetByToken(_ context.Context, token string) (*account.RefreshToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.refreshTokens {
		if rec.Token == token {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (r *memRefreshTokens) StatusByToken(_ context.Context, token string) (*account.TokenStatus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.refreshTokens {
		if rec.Token == token {
			status := rec.Status
			return &status, nil
		}
	}
	return nil, nil
}

func (r *memRefreshTokens) Insert(_ context.Context, record *account.RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *record
	r.store.refreshTokens[record.Issuer] = &clone
	return nil
}

func (r *memRefreshTokens) Rotate(_ context.Context, issuer uuid.UUID, token string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.refreshTokens[issuer]
	if !ok {
		return 0, nil
	}
	rec.Token = token
	rec.Status = account.TokenActive
	return 1, nil
}

func (r *memRefreshTokens) SetStatusByToken(_ context.Context, token string, status account.TokenStatus) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.refreshTokens {
		if rec.Token == token {
			rec.Status = status
			return 1, nil
		}
	}
	return 0, nil
}

// recordingNotifier captures every outbound email for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	emails []sentEmail
	pushes int
	fail   error
}

type sentEmail struct {
	Address string
	Purpose account.VerificationPurpose
	Code    string
}

func (n *recordingNotifier) SendVerificationEmail(_ context.Context, address string, purpose account.VerificationPurpose, code string) error {
	if n.fail != nil {
		return n.fail
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, sentEmail{Address: address, Purpose: purpose, Code: code})
	return nil
}

func (n *recordingNotifier) SendPushNotification(_ context.Context, _, _, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes++
	return nil
}

func (n *recordingNotifier) last() (sentEmail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.emails) == 0 {
		return sentEmail{}, false
	}
	return n.emails[len(n.emails)-1], true
}

// recordingSession captures session writes and purges.
type recordingSession struct {
	mu     sync.Mutex
	values map[string]any
	purged bool
}

func newRecordingSession() *recordingSession {
	return &recordingSession{values: map[string]any{}}
}

func (s *recordingSession) Insert(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *recordingSession) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]any{}
	s.purged = true
	return nil
}

var (
	_ account.RepositoryManager = (*memRepoManager)(nil)
	_ account.Notifier          = (*recordingNotifier)(nil)
	_ account.SessionStore      = (*recordingSession)(nil)
)
