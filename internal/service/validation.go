package service

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var commonPasswords = map[string]struct{}{
	"password":    {},
	"12345678":    {},
	"password123": {},
	"admin123":    {},
	"qwerty123":   {},
}

// SignupInput is the payload of a signup request.
type SignupInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// validateSignup applies the checks in the order users see them: required
// fields, confirmation, strength, denylist, username length, email shape.
func validateSignup(in SignupInput) error {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return invalid("", "All fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return invalid("confirmPassword", "Passwords do not match")
	}
	if err := CheckPasswordPolicy(in.Password); err != nil {
		return err
	}
	if len([]rune(in.Username)) < 3 {
		return invalid("username", "Username must be at least 3 characters long")
	}
	if !emailRe.MatchString(in.Email) {
		return invalid("email", "Please enter a valid email address")
	}
	return nil
}

// CheckPasswordPolicy requires at least 8 characters with an upper-case
// letter, a lower-case letter and a digit, and rejects well-known passwords.
func CheckPasswordPolicy(pw string) error {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if len([]rune(pw)) < 8 || !upper || !lower || !digit {
		return invalid("password", "Password must be at least 8 characters and include uppercase, lowercase, and number")
	}
	if _, bad := commonPasswords[strings.ToLower(pw)]; bad {
		return invalid("password", "Password is too common. Please choose a stronger password")
	}
	return nil
}
