package services_test

import (
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"chalfim/internal/models"
	"chalfim/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetAll() ([]models.User, error) {
	args := m.Called()
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(user models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(username, passwordHash string) (*models.User, error) {
	args := m.Called(username, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockResetRepository is a mock implementation of repositories.ResetRepository
type MockResetRepository struct {
	mock.Mock
}

func (m *MockResetRepository) Pending() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockResetRepository) Request(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

func (m *MockResetRepository) Handle(username string, approve bool) error {
	args := m.Called(username, approve)
	return args.Error(0)
}

func (m *MockResetRepository) Complete(username, passwordHash string) error {
	args := m.Called(username, passwordHash)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event string, payload map[string]interface{}) error {
	args := m.Called(event, payload)
	return args.Error(0)
}

func newAuthService(users *MockUserRepository, resets *MockResetRepository, events services.EventPublisher) *services.AuthService {
	return services.NewAuthService(users, resets, events, "marten", "test_jwt_secret")
}

func hash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func TestAuthService_Login(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockResets := new(MockResetRepository)
	authService := newAuthService(mockUsers, mockResets, nil)

	stored := &models.User{Username: "dana", Password: hash(t, "password123"), Role: "user"}

	// Successful login returns role, username and a valid token.
	mockUsers.On("GetByUsername", "dana").Return(stored, nil).Once()
	result, err := authService.Login("dana", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "dana", result.Username)
	assert.Equal(t, "user", result.Role)
	assert.False(t, result.RequireNewPassword)

	claims, err := authService.ValidateToken(result.Token)
	assert.NoError(t, err)
	assert.Equal(t, "dana", claims["username"])
	assert.Equal(t, "user", claims["role"])

	// Wrong password.
	mockUsers.On("GetByUsername", "dana").Return(stored, nil).Once()
	result, err = authService.Login("dana", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Nil(t, result)

	// Unknown user looks exactly like a wrong password.
	mockUsers.On("GetByUsername", "ghost").Return(nil, models.ErrUserNotFound).Once()
	result, err = authService.Login("ghost", "password123")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Nil(t, result)

	mockUsers.AssertExpectations(t)
}

func TestAuthService_LoginMustChangePassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	authService := newAuthService(mockUsers, new(MockResetRepository), nil)

	stored := &models.User{
		Username:           "dana",
		Password:           hash(t, "password123"),
		Role:               "user",
		MustChangePassword: true,
	}
	mockUsers.On("GetByUsername", "dana").Return(stored, nil).Once()

	result, err := authService.Login("dana", "password123")
	assert.NoError(t, err)
	assert.True(t, result.RequireNewPassword)
	assert.Empty(t, result.Token, "a must-change account does not get a session")
	assert.Empty(t, result.Role)

	mockUsers.AssertExpectations(t)
}

func TestAuthService_CreateUserHashesPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	authService := newAuthService(mockUsers, new(MockResetRepository), nil)

	mockUsers.On("Create", mock.MatchedBy(func(u models.User) bool {
		return u.Username == "dana" &&
			u.Role == "user" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret99")) == nil
	})).Return(nil).Once()

	assert.NoError(t, authService.CreateUser("dana", "secret99", "user"))
	mockUsers.AssertExpectations(t)
}

func TestAuthService_DeleteUserProtectsBootstrapAdmin(t *testing.T) {
	mockUsers := new(MockUserRepository)
	authService := newAuthService(mockUsers, new(MockResetRepository), nil)

	err := authService.DeleteUser("marten")
	assert.ErrorIs(t, err, models.ErrForbidden)
	mockUsers.AssertNotCalled(t, "Delete", mock.Anything)

	mockUsers.On("Delete", "dana").Return(nil).Once()
	assert.NoError(t, authService.DeleteUser("dana"))
	mockUsers.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	authService := newAuthService(mockUsers, new(MockResetRepository), nil)

	updated := &models.User{Username: "dana", Password: "new-hash", Role: "user"}
	mockUsers.On("UpdatePassword", "dana", mock.AnythingOfType("string")).Return(updated, nil).Once()

	role, token, err := authService.ChangePassword("dana", "brand-new")
	assert.NoError(t, err)
	assert.Equal(t, "user", role)
	assert.NotEmpty(t, token)

	mockUsers.On("UpdatePassword", "ghost", mock.AnythingOfType("string")).Return(nil, models.ErrUserNotFound).Once()
	_, _, err = authService.ChangePassword("ghost", "x")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	mockUsers.AssertExpectations(t)
}

func TestAuthService_ResetWorkflowPublishesEvents(t *testing.T) {
	mockResets := new(MockResetRepository)
	mockEvents := new(MockEventPublisher)
	authService := newAuthService(new(MockUserRepository), mockResets, mockEvents)

	mockResets.On("Request", "dana").Return(nil).Once()
	mockEvents.On("Publish", services.EventResetRequested, map[string]interface{}{"username": "dana"}).Return(nil).Once()
	assert.NoError(t, authService.RequestReset("dana"))

	mockResets.On("Handle", "dana", true).Return(nil).Once()
	mockEvents.On("Publish", services.EventResetApproved, map[string]interface{}{"username": "dana"}).Return(nil).Once()
	assert.NoError(t, authService.HandleReset("dana", "approve"))

	// Anything but "approve" is a denial.
	mockResets.On("Handle", "dana", false).Return(nil).Once()
	mockEvents.On("Publish", services.EventResetDenied, map[string]interface{}{"username": "dana"}).Return(nil).Once()
	assert.NoError(t, authService.HandleReset("dana", "reject"))

	mockResets.On("Complete", "dana", mock.AnythingOfType("string")).Return(nil).Once()
	mockEvents.On("Publish", services.EventResetCompleted, map[string]interface{}{"username": "dana"}).Return(nil).Once()
	assert.NoError(t, authService.CompleteReset("dana", "fresh-password"))

	mockResets.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestAuthService_CompleteResetWithoutApproval(t *testing.T) {
	mockResets := new(MockResetRepository)
	authService := newAuthService(new(MockUserRepository), mockResets, nil)

	mockResets.On("Complete", "dana", mock.AnythingOfType("string")).Return(models.ErrResetNotAllowed).Once()
	err := authService.CompleteReset("dana", "fresh-password")
	assert.ErrorIs(t, err, models.ErrResetNotAllowed)
	mockResets.AssertExpectations(t)
}

func TestAuthService_ValidateTokenRejectsForgeries(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), new(MockResetRepository), nil)

	_, err := authService.ValidateToken("not-a-token")
	assert.Error(t, err)

	// A token signed with a different secret must be rejected.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "dana"})
	forgedString, err := forged.SignedString([]byte("other_secret"))
	assert.NoError(t, err)
	_, err = authService.ValidateToken(forgedString)
	assert.Error(t, err)
}
