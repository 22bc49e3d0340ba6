package auth

import (
	"strings"
	"unicode"
)

// PasswordMinLength is the single length threshold for every credential path:
// registration, set-password, and the standalone validation endpoint all go
// through the same policy.
const PasswordMinLength = 12

// PasswordIdentifiers carries the caller's identifiers so the policy can
// reject passwords derived from them.
type PasswordIdentifiers struct {
	Email    string
	Username string
}

// PasswordResult is the outcome of a validation pass. IsValid is the
// conjunction of every rule; each failing rule contributes one error string.
type PasswordResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// PasswordStrength is an advisory score, independent of validity.
type PasswordStrength struct {
	Strength string   `json:"strength"`
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
}

// Strength bands, weakest to strongest.
const (
	StrengthWeak   = "weak"
	StrengthFair   = "fair"
	StrengthGood   = "good"
	StrengthStrong = "strong"
)

// PasswordPolicy validates password composition and scores strength. Both
// methods are pure functions of their input.
type PasswordPolicy struct {
	MinLength       int
	CommonPasswords map[string]struct{}
}

// NewPasswordPolicy returns the default policy with the embedded
// common-password list.
func NewPasswordPolicy() *PasswordPolicy {
	common := make(map[string]struct{}, len(commonPasswords))
	for _, p := range commonPasswords {
		common[p] = struct{}{}
	}
	return &PasswordPolicy{
		MinLength:       PasswordMinLength,
		CommonPasswords: common,
	}
}

// Validate applies every composition rule. All must pass for IsValid.
func (p *PasswordPolicy) Validate(password string, ids PasswordIdentifiers) PasswordResult {
	var errs []string

	minLen := p.MinLength
	if minLen <= 0 {
		minLen = PasswordMinLength
	}

	if len(password) < minLen {
		errs = append(errs, "password must be at least 12 characters long")
	}

	classes := classifyRunes(password)
	if !classes.upper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !classes.lower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !classes.digit {
		errs = append(errs, "password must contain at least one number")
	}
	if !classes.special {
		errs = append(errs, "password must contain at least one special character")
	}

	if containsIdentifier(password, ids) {
		errs = append(errs, "password must not contain your email or username")
	}

	if _, common := p.CommonPasswords[strings.ToLower(password)]; common {
		errs = append(errs, "password is too common, choose something less predictable")
	}

	return PasswordResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// Score rates the password independently of validity and suggests
// improvements. A low score does not imply the password fails Validate.
func (p *PasswordPolicy) Score(password string) PasswordStrength {
	score := 0
	var feedback []string

	switch {
	case len(password) >= 16:
		score += 40
	case len(password) >= PasswordMinLength:
		score += 25
	case len(password) >= 8:
		score += 10
		feedback = append(feedback, "use at least 12 characters")
	default:
		feedback = append(feedback, "use at least 12 characters")
	}

	classes := classifyRunes(password)
	variety := 0
	if classes.upper {
		variety++
	} else {
		feedback = append(feedback, "add uppercase letters")
	}
	if classes.lower {
		variety++
	} else {
		feedback = append(feedback, "add lowercase letters")
	}
	if classes.digit {
		variety++
	} else {
		feedback = append(feedback, "add numbers")
	}
	if classes.special {
		variety++
	} else {
		feedback = append(feedback, "add special characters")
	}
	score += variety * 10

	if uniqueRunes(password) >= len(password)*3/4 {
		score += 20
	} else if len(password) > 0 {
		feedback = append(feedback, "avoid repeated characters")
	}

	if _, common := p.CommonPasswords[strings.ToLower(password)]; common {
		score = 0
		feedback = append(feedback, "this password appears in breach lists")
	}

	if score > 100 {
		score = 100
	}

	band := StrengthWeak
	switch {
	case score >= 85:
		band = StrengthStrong
	case score >= 65:
		band = StrengthGood
	case score >= 40:
		band = StrengthFair
	}

	return PasswordStrength{
		Strength: band,
		Score:    score,
		Feedback: feedback,
	}
}

type runeClasses struct {
	upper, lower, digit, special bool
}

func classifyRunes(s string) runeClasses {
	var c runeClasses
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		default:
			c.special = true
		}
	}
	return c
}

func uniqueRunes(s string) int {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// containsIdentifier checks the password against the username and the email
// local part, case-insensitively. Identifiers shorter than 3 runes are
// skipped, they would match almost anything.
func containsIdentifier(password string, ids PasswordIdentifiers) bool {
	lowered := strings.ToLower(password)

	candidates := []string{strings.ToLower(strings.TrimSpace(ids.Username))}
	if email := NormalizeEmail(ids.Email); email != "" {
		local := email
		if at := strings.Index(email, "@"); at > 0 {
			local = email[:at]
		}
		candidates = append(candidates, local)
	}

	for _, cand := range candidates {
		if len(cand) < 3 {
			continue
		}
		if strings.Contains(lowered, cand) {
			return true
		}
	}

	return false
}

// commonPasswords is a short denylist of the passwords we see most in breach
// corpora. Matching is case-insensitive against the whole password.
var commonPasswords = []string{
	"password", "password1", "password123", "passw0rd", "p@ssword",
	"p@ssw0rd", "123456", "1234567", "12345678", "123456789", "1234567890",
	"qwerty", "qwerty123", "qwertyuiop", "abc123", "letmein", "welcome",
	"welcome1", "welcome123", "admin", "admin123", "iloveyou", "monkey",
	"dragon", "sunshine", "princess", "football", "baseball", "superman",
	"batman", "trustno1", "master", "shadow", "whatever", "freedom",
	"starwars", "computer", "michelle", "jessica", "charlie", "jordan",
	"password!", "password1!", "changeme", "changeme123", "secret",
	"secret123", "default", "login", "access", "hello123", "summer2024",
	"winter2024", "spring2024", "autumn2024",
}
