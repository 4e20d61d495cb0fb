package service

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
)

// memStore is an in-memory user and OTP store. Every method holds the lock
// for its whole read-modify-write, matching the single-statement or
// transactional guarantees of the Postgres repositories.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	otps  map[uuid.UUID]*domain.VerificationOTP

	findErr             error
	replaceCalls        int
	saveCalls           int
	deletedOTPs         []uuid.UUID
	listFilter          []domain.UserStatus
	beforeResetPassword func()
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]*domain.User),
		otps:  make(map[uuid.UUID]*domain.VerificationOTP),
	}
}

func (m *memStore) addUser(email string, verified bool) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Verified:  verified,
		Status:    domain.UserStatusOffline,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[u.ID] = u
	return cloneUser(u)
}

func (m *memStore) user(id uuid.UUID) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return cloneUser(u)
	}
	return nil
}

func (m *memStore) otpFor(userID uuid.UUID) *domain.VerificationOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	if otp, ok := m.otps[userID]; ok {
		clone := *otp
		return &clone
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	if u.ResetToken != nil {
		token := *u.ResetToken
		clone.ResetToken = &token
	}
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (m *memStore) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		Status:       domain.UserStatusOffline,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return cloneUser(u), nil
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if update.FullName != nil {
		u.FullName = update.FullName
	}
	if update.Phone != nil {
		u.Phone = update.Phone
	}
	if update.Address != nil {
		u.Address = update.Address
	}
	if update.ImageURL != nil {
		u.ImageURL = update.ImageURL
	}
	return cloneUser(u), nil
}

func (m *memStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.PasswordSalt = append([]byte(nil), passwordSalt...)
	u.ResetToken = nil
	return nil
}

func (m *memStore) SetResetToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ResetToken = &token
	return nil
}

func (m *memStore) ResetPassword(ctx context.Context, id uuid.UUID, expectedToken string, passwordHash, passwordSalt []byte) error {
	if m.beforeResetPassword != nil {
		m.beforeResetPassword()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != expectedToken {
		return sql.ErrNoRows
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.PasswordSalt = append([]byte(nil), passwordSalt...)
	u.ResetToken = nil
	return nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.UserStatus) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Status != from {
		return nil, sql.ErrNoRows
	}
	u.Status = to
	return cloneUser(u), nil
}

func (m *memStore) List(ctx context.Context, limit, offset int, statuses []domain.UserStatus) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listFilter = append([]domain.UserStatus(nil), statuses...)
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if u.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *cloneUser(u))
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	delete(m.otps, id)
	return nil
}

func (m *memStore) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.VerificationOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if otp, ok := m.otps[userID]; ok {
		clone := *otp
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) FindByUserIDAndCode(ctx context.Context, userID uuid.UUID, code string) (*domain.VerificationOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if otp, ok := m.otps[userID]; ok && otp.Code == code {
		clone := *otp
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) Save(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if _, ok := m.otps[userID]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	otp := &domain.VerificationOTP{ID: uuid.New(), UserID: userID, Code: code, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.otps[userID] = otp
	clone := *otp
	return &clone, nil
}

func (m *memStore) Replace(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	otp := &domain.VerificationOTP{ID: uuid.New(), UserID: userID, Code: code, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.otps[userID] = otp
	clone := *otp
	return &clone, nil
}

func (m *memStore) deleteOTP(id uuid.UUID) error {
	for userID, otp := range m.otps {
		if otp.ID == id {
			delete(m.otps, userID)
			m.deletedOTPs = append(m.deletedOTPs, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) ConsumeAndVerify(ctx context.Context, otpID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.otps[userID]
	if !ok || otp.ID != otpID {
		return sql.ErrNoRows
	}
	u, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.otps, userID)
	u.Verified = true
	return nil
}

// otpRepo adapts memStore to the OTP port; Delete collides with the user
// port's Delete on the shared store.
type otpRepo struct{ *memStore }

func (r otpRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteOTP(id)
}

var (
	_ ports.UserRepository            = (*memStore)(nil)
	_ ports.VerificationOTPRepository = otpRepo{}
)

type fakeRoleRepo struct {
	roleResult *domain.Role
	roleErr    error

	assignedPairs []struct {
		userID uuid.UUID
		roleID uuid.UUID
	}
	assignErr error

	byUser map[uuid.UUID][]domain.Role
}

func (f *fakeRoleRepo) GetOrCreateRole(ctx context.Context, name, description string) (*domain.Role, error) {
	if f.roleErr != nil {
		return nil, f.roleErr
	}
	if f.roleResult != nil {
		return f.roleResult, nil
	}
	return &domain.Role{ID: uuid.New(), Name: name}, nil
}

func (f *fakeRoleRepo) AssignUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	f.assignedPairs = append(f.assignedPairs, struct {
		userID uuid.UUID
		roleID uuid.UUID
	}{userID: userID, roleID: roleID})
	if f.assignErr != nil {
		return f.assignErr
	}
	if f.byUser == nil {
		f.byUser = make(map[uuid.UUID][]domain.Role)
	}
	f.byUser[userID] = append(f.byUser[userID], domain.Role{ID: roleID, Name: domain.RoleNameUser})
	return nil
}

func (f *fakeRoleRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	return append([]domain.Role(nil), f.byUser[userID]...), nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	createErr        error
	deactivatedToken string
	deactivatedUsers []uuid.UUID
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.sessions == nil {
		f.sessions = make(map[string]*domain.Session)
	}
	session := &domain.Session{ID: int64(len(f.sessions) + 1), UserID: userID, Token: token, ExpiresAt: expiresAt, IsActive: true, CreatedAt: time.Now()}
	f.sessions[token] = session
	clone := *session
	return &clone, nil
}

func (f *fakeSessionRepo) DeactivateSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivatedToken = token
	session, ok := f.sessions[token]
	if !ok {
		return sql.ErrNoRows
	}
	session.IsActive = false
	return nil
}

func (f *fakeSessionRepo) DeactivateUserSessions(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivatedUsers = append(f.deactivatedUsers, userID)
	for _, session := range f.sessions {
		if session.UserID == userID {
			session.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[token]
	if !ok || !session.IsActive {
		return nil, sql.ErrNoRows
	}
	clone := *session
	return &clone, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []ports.Message
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, msg ports.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotifier) last() ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ports.Message{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeRecorder struct {
	mu       sync.Mutex
	failures map[string]int
	events   map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failures: map[string]int{}, events: map[string]int{}}
}

func (f *fakeRecorder) NotificationFailed(tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[tag]++
}

func (f *fakeRecorder) CredentialEvent(event, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event+"/"+outcome]++
}

type fakeLimiter struct {
	allowErr error
	calls    []string
	resets   []string
}

func (f *fakeLimiter) Allow(ctx context.Context, scope, key string) error {
	f.calls = append(f.calls, scope+":"+key)
	return f.allowErr
}

func (f *fakeLimiter) Reset(ctx context.Context, scope, key string) error {
	f.resets = append(f.resets, scope+":"+key)
	return nil
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}
	url string
	err error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}{bucket: bucket, objectName: objectName, contentType: contentType, size: size})
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://storage/" + objectName, nil
}

// testClock is a settable clock shared by a service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
