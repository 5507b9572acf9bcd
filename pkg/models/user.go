package models

import (
	"strings"
	"unicode"
)

// User is the signed-in portal user. Nothing about it is verified.
type User struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
}

// NewUser builds a User, deriving the display name from the email.
func NewUser(email string, role Role) User {
	return User{
		Email: strings.TrimSpace(email),
		Role:  role,
		Name:  NameFromEmail(email),
	}
}

// NameFromEmail turns "jane.doe@corp" into "Jane Doe".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)

	var b strings.Builder
	prevWord := false
	for _, r := range local {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
		if isWord && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = isWord
	}
	return b.String()
}

// Initials returns the avatar letters for the user.
func (u User) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(u.Name) {
		r := []rune(word)
		b.WriteRune(unicode.ToUpper(r[0]))
	}
	return b.String()
}
