package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/identity/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockRepository implements Repository for testing.
// CreateUser enforces email uniqueness like the real unique index.
type mockRepository struct {
	mu             sync.Mutex
	users          map[string]*domain.User
	inserts        int
	createUserErr  error
	emailExistsErr error
	getUserErr     error
	// existsAlwaysFalse simulates a pre-check that lost a race.
	existsAlwaysFalse bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createUserErr != nil {
		return m.createUserErr
	}
	if _, ok := m.users[user.Email]; ok {
		return ErrEmailExists
	}
	m.inserts++
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.Email] = &stored
	return nil
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	if u, ok := m.users[email]; ok {
		userCopy := *u
		return &userCopy, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailExistsErr != nil {
		return false, m.emailExistsErr
	}
	if m.existsAlwaysFalse {
		return false, nil
	}
	_, ok := m.users[email]
	return ok, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *jwt.Issuer) {
	t.Helper()

	hasher, err := NewBcryptHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)

	issuer, err := jwt.NewIssuer(jwt.Config{SigningKey: []byte("test-signing-key-test-signing-key")})
	require.NoError(t, err)

	return NewService(repo, hasher, issuer), issuer
}

func annInput() RegisterInput {
	return RegisterInput{
		Name:     "Ann",
		Email:    "ann@x.com",
		Password: "secret123",
		Phone:    "555",
		Role:     "owner",
	}
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	service, issuer := newTestService(t, repo)

	// Act
	result, err := service.Register(context.Background(), annInput())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "Ann", result.User.Name)
	assert.Equal(t, "ann@x.com", result.User.Email)
	assert.Equal(t, domain.RoleOwner, result.User.Role)
	assert.Equal(t, "555", result.User.Phone)

	stored := repo.users["ann@x.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.Password, "password must not be stored in plaintext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))

	claims, err := issuer.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", claims.Subject)
	assert.Equal(t, "OWNER", claims.Role)
	assert.Equal(t, "Ann", claims.Name)
}

func TestRegister_EmailAlreadyExists(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	service, _ := newTestService(t, repo)

	_, err := service.Register(context.Background(), annInput())
	require.NoError(t, err)

	// Act
	result, err := service.Register(context.Background(), annInput())

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, 1, repo.inserts, "no second row must be created")
}

func TestRegister_StoreConflictIsAuthoritative(t *testing.T) {
	// Arrange: the pre-check misses a concurrent insert
	repo := newMockRepository()
	repo.existsAlwaysFalse = true
	service, _ := newTestService(t, repo)

	_, err := service.Register(context.Background(), annInput())
	require.NoError(t, err)

	// Act
	_, err = service.Register(context.Background(), annInput())

	// Assert
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, 1, repo.inserts)
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	repo := newMockRepository()
	repo.existsAlwaysFalse = true
	service, _ := newTestService(t, repo)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Register(context.Background(), annInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrEmailExists):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, repo.inserts)
}

func TestRegister_InvalidRole(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestService(t, repo)

	input := annInput()
	input.Role = "landlord"

	result, err := service.Register(context.Background(), input)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Zero(t, repo.inserts)
}

func TestRegister_DuplicateReportedBeforeInvalidRole(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestService(t, repo)

	_, err := service.Register(context.Background(), annInput())
	require.NoError(t, err)

	input := annInput()
	input.Role = "landlord"

	_, err = service.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, 1, repo.inserts)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestService(t, repo)

	input := annInput()
	input.Password = strings.Repeat("é", 40)

	result, err := service.Register(context.Background(), input)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Zero(t, repo.inserts)
}

func TestRegister_RoleIsCaseInsensitive(t *testing.T) {
	for _, role := range []string{"tenant", "Tenant", "TENANT", "customer"} {
		t.Run(role, func(t *testing.T) {
			repo := newMockRepository()
			service, _ := newTestService(t, repo)

			input := annInput()
			input.Role = role

			result, err := service.Register(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, domain.RoleTenant, result.User.Role)
		})
	}
}

func TestRegister_StoreFailureIsNotAuthError(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("database error")
	service, _ := newTestService(t, repo)

	result, err := service.Register(context.Background(), annInput())

	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "database error")
}

func TestRegister_PreCheckFailure(t *testing.T) {
	repo := newMockRepository()
	repo.emailExistsErr = errors.New("connection reset")
	service, _ := newTestService(t, repo)

	_, err := service.Register(context.Background(), annInput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, repo.inserts)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	service, issuer := newTestService(t, repo)

	registered, err := service.Register(context.Background(), annInput())
	require.NoError(t, err)

	// Act
	result, err := service.Login(context.Background(), LoginInput{
		Email:    "ann@x.com",
		Password: "secret123",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, registered.User, result.User)

	claims, err := issuer.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", claims.Subject)
	assert.Equal(t, "OWNER", claims.Role)
	assert.Equal(t, "Ann", claims.Name)

	subject, err := service.SubjectFromToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", subject)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestService(t, repo)

	_, err := service.Register(context.Background(), annInput())
	require.NoError(t, err)

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "ann@x.com",
		Password: "secret124",
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UserNotFound(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestService(t, repo)

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "nobody@x.com",
		Password: "secret123",
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_StoreFailure(t *testing.T) {
	repo := newMockRepository()
	repo.getUserErr = errors.New("store unavailable")
	service, _ := newTestService(t, repo)

	_, err := service.Login(context.Background(), LoginInput{
		Email:    "ann@x.com",
		Password: "secret123",
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken_Invalid(t *testing.T) {
	service, _ := newTestService(t, newMockRepository())

	_, err := service.VerifyToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.SubjectFromToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
