package utils

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidatePassword applies the password policy and returns one message per
// violated rule. An empty result means the password is acceptable.
func ValidatePassword(password string) []string {
	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
		allDigits  = password != ""
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
		if !unicode.IsDigit(char) {
			allDigits = false
		}
	}

	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, "This password is too long. It must not exceed 72 bytes.")
	}
	if allDigits {
		problems = append(problems, "This password is entirely numeric.")
	}
	if !hasUpper || !hasLower {
		problems = append(problems, "Password must contain both uppercase and lowercase letters.")
	}
	if !hasNumber {
		problems = append(problems, "Password must contain at least one number.")
	}
	if !hasSpecial {
		problems = append(problems, "Password must contain at least one special symbol.")
	}

	return problems
}
