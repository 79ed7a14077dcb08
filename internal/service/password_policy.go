package service

import (
	"fmt"
	"unicode"

	"github.com/nike-storefront/internal/config"
)

type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	if len(e.args) == 0 {
		return e.key
	}
	return fmt.Sprintf("%s: %v", e.key, e.args[0])
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Unwrap 使 KindOf 能识别为校验错误
func (e passwordPolicyError) Unwrap() error {
	return ErrWeakPassword
}

func (e passwordPolicyError) Key() string {
	return e.key
}

func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	length := len([]rune(password))
	if policy.MaxLength > 0 && length > policy.MaxLength {
		return passwordPolicyError{key: "password_max_length", args: []interface{}{policy.MaxLength}}
	}
	if policy.MinLength > 0 && length < policy.MinLength {
		return passwordPolicyError{key: "password_min_length", args: []interface{}{policy.MinLength}}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return passwordPolicyError{key: "password_require_upper"}
	}
	if policy.RequireLower && !hasLower {
		return passwordPolicyError{key: "password_require_lower"}
	}
	if policy.RequireNumber && !hasNumber {
		return passwordPolicyError{key: "password_require_number"}
	}
	if policy.RequireSpecial && !hasSpecial {
		return passwordPolicyError{key: "password_require_special"}
	}
	return nil
}
