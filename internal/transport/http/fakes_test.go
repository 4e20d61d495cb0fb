package http

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	otps  map[uuid.UUID]*domain.VerificationOTP
	roles map[uuid.UUID][]domain.Role
}

func newMemUsers() *memUsers {
	return &memUsers{
		users: map[uuid.UUID]*domain.User{},
		otps:  map[uuid.UUID]*domain.VerificationOTP{},
		roles: map[uuid.UUID][]domain.Role{},
	}
}

func (m *memUsers) copyOf(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]domain.Role(nil), m.roles[u.ID]...)
	return &c
}

func (m *memUsers) CreateEmailUser(ctx context.Context, email string, hash, salt []byte) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	u := &domain.User{ID: uuid.New(), Email: email, PasswordHash: hash, PasswordSalt: salt, Status: domain.UserStatusOffline}
	m.users[u.ID] = u
	return m.copyOf(u), nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return m.copyOf(u), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return m.copyOf(u), nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
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
	return m.copyOf(u), nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash, u.PasswordSalt, u.ResetToken = hash, salt, nil
	return nil
}

func (m *memUsers) SetResetToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ResetToken = &token
	return nil
}

func (m *memUsers) ResetPassword(ctx context.Context, id uuid.UUID, expected string, hash, salt []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != expected {
		return sql.ErrNoRows
	}
	u.PasswordHash, u.PasswordSalt, u.ResetToken = hash, salt, nil
	return nil
}

func (m *memUsers) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.UserStatus) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Status != from {
		return nil, sql.ErrNoRows
	}
	u.Status = to
	return m.copyOf(u), nil
}

func (m *memUsers) List(ctx context.Context, limit, offset int, statuses []domain.UserStatus) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for _, u := range m.users {
		out = append(out, *m.copyOf(u))
	}
	return out, nil
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) GetOrCreateRole(ctx context.Context, name, description string) (*domain.Role, error) {
	return &domain.Role{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), Name: name}, nil
}

func (m *memUsers) AssignUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := domain.RoleNameUser
	if roleID == uuid.NewSHA1(uuid.NameSpaceOID, []byte(domain.RoleNameAdmin)) {
		name = domain.RoleNameAdmin
	}
	m.roles[userID] = append(m.roles[userID], domain.Role{ID: roleID, Name: name})
	return nil
}

func (m *memUsers) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Role(nil), m.roles[userID]...), nil
}

type memOTPs struct{ *memUsers }

func (o memOTPs) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.VerificationOTP, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if otp, ok := o.otps[userID]; ok {
		c := *otp
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (o memOTPs) FindByUserIDAndCode(ctx context.Context, userID uuid.UUID, code string) (*domain.VerificationOTP, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if otp, ok := o.otps[userID]; ok && otp.Code == code {
		c := *otp
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (o memOTPs) Save(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.otps[userID]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	otp := &domain.VerificationOTP{ID: uuid.New(), UserID: userID, Code: code, ExpiresAt: expiresAt}
	o.otps[userID] = otp
	c := *otp
	return &c, nil
}

func (o memOTPs) Replace(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	otp := &domain.VerificationOTP{ID: uuid.New(), UserID: userID, Code: code, ExpiresAt: expiresAt}
	o.otps[userID] = otp
	c := *otp
	return &c, nil
}

func (o memOTPs) Delete(ctx context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for userID, otp := range o.otps {
		if otp.ID == id {
			delete(o.otps, userID)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (o memOTPs) ConsumeAndVerify(ctx context.Context, otpID, userID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	otp, ok := o.otps[userID]
	u, userOK := o.users[userID]
	if !ok || !userOK || otp.ID != otpID {
		return sql.ErrNoRows
	}
	delete(o.otps, userID)
	u.Verified = true
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func (s *memSessions) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = map[string]*domain.Session{}
	}
	session := &domain.Session{UserID: userID, Token: token, ExpiresAt: expiresAt, IsActive: true}
	s.sessions[token] = session
	c := *session
	return &c, nil
}

func (s *memSessions) DeactivateSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		session.IsActive = false
		return nil
	}
	return sql.ErrNoRows
}

func (s *memSessions) DeactivateUserSessions(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.UserID == userID {
			session.IsActive = false
		}
	}
	return nil
}

func (s *memSessions) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok && session.IsActive {
		c := *session
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []ports.Message
}

func (n *captureNotifier) Send(ctx context.Context, msg ports.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) last() ports.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}
