package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// アクセストークンの有効期限
const accessTokenTTL = 7 * 24 * time.Hour

// パスワードのハッシュ化
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// 平文とハッシュの照合
type PasswordVerifier interface {
	Verify(hash, password string) bool
}

type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type BcryptVerifier struct{}

func (BcryptVerifier) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// レスポンス用。PasswordHashは持たない
type UserDTO struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone"`
	Address   model.UserAddress `json:"address"`
	Role      string            `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
}

type AuthResult struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  model.UserAddress
}

type UpdateProfileInput struct {
	Name    string
	Phone   string
	Address model.UserAddress
}

type AuthUsecase struct {
	cfg       config.Config
	users     repo.UserRepository
	validator *validator.AuthValidator
	hasher    PasswordHasher
	verifier  PasswordVerifier
	idGen     IDGenerator
	clock     Clock
}

func NewAuthUsecase(
	cfg config.Config,
	users repo.UserRepository,
	v *validator.AuthValidator,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	idGen IDGenerator,
	clock Clock,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		validator: v,
		hasher:    hasher,
		verifier:  verifier,
		idGen:     idGen,
		clock:     clock,
	}
}

// Register は会員登録してトークンを返す
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := u.validator.ValidateRegister(in.Email, in.Password, in.Name); err != nil {
		return AuthResult{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, NewHTTPError(http.StatusInternalServerError, "could not hash password")
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      in.Address,
		Role:         model.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if err == repo.ErrDuplicateEmail {
			return AuthResult{}, NewHTTPError(http.StatusConflict, "user with this email already exists")
		}
		return AuthResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	token, err := u.issueToken(user)
	if err != nil {
		return AuthResult{}, NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}

	return AuthResult{Token: token, User: toUserDTO(user)}, nil
}

// Login は資格情報を検証してトークンを返す。
// emailの有無とパスワード不一致はレスポンス上で区別しない
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if err := u.validator.ValidateLogin(email, password); err != nil {
		return AuthResult{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := u.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return AuthResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive || !u.verifier.Verify(user.PasswordHash, password) {
		return AuthResult{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	token, err := u.issueToken(user)
	if err != nil {
		return AuthResult{}, NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}

	return AuthResult{Token: token, User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Profile(ctx context.Context, userID string) (UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	return toUserDTO(user), nil
}

// UpdateProfile は名前・電話・住所のみ更新（email/role/パスワードは対象外）
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, "user not found")
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		user.Phone = phone
	}
	if in.Address != (model.UserAddress{}) {
		user.Address = in.Address
	}
	user.UpdatedAt = u.clock.Now()

	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toUserDTO(user), nil
}

func (u *AuthUsecase) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := u.validator.ValidatePassword(next); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return NewHTTPError(http.StatusNotFound, "user not found")
	}
	if !u.verifier.Verify(user.PasswordHash, current) {
		return NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
	}

	hash, err := u.hasher.Hash(next)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "could not hash password")
	}
	user.PasswordHash = hash
	user.UpdatedAt = u.clock.Now()

	if err := u.users.Update(ctx, user); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AuthUsecase) issueToken(user *model.User) (string, error) {
	now := u.clock.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.cfg.JWTSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserDTO(user *model.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Address:   user.Address,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
