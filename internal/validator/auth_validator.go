package validator

import (
	"errors"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 登録・ログイン入力の検証。
// DBに触る前に形式だけ落とす（email重複はrepository側）
type AuthValidator struct{}

func NewAuthValidator() *AuthValidator {
	return &AuthValidator{}
}

func (v *AuthValidator) ValidateRegister(email, password, name string) error {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return errors.New("email, password, and name are required")
	}
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	return v.ValidatePassword(password)
}

func (v *AuthValidator) ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

func (v *AuthValidator) ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return errors.New("invalid email format")
	}
	return nil
}

func (v *AuthValidator) ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}
	return nil
}
