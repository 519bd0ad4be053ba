package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxBioLength      = 500
	MaxLocationLength = 30
)

// User represents an authenticated identity in the platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeUsername is the form used for uniqueness checks.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Registration is the input of the sign-up flow.
type Registration struct {
	Username string
	Password string
	Email    string
}

// Validate reports every rejected registration field.
func (r Registration) Validate() error {
	fields := map[string]string{}

	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
		fields["username"] = "this field is required"
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		fields["username"] = "must be at most 150 characters"
	case strings.ContainsAny(username, " \t\r\n"):
		fields["username"] = "must not contain whitespace"
	}

	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}

	if reason := validateEmail(r.Email); reason != "" {
		fields["email"] = reason
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// ProfilePatch updates the editable profile fields.
type ProfilePatch struct {
	Email    *string
	Bio      *string
	Location *string
}

// Apply validates the patch and writes it onto user.
func (p ProfilePatch) Apply(user *User) error {
	fields := map[string]string{}
	next := *user

	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if reason := validateEmail(email); reason != "" {
			fields["email"] = reason
		}
		next.Email = email
	}
	if p.Bio != nil {
		if utf8.RuneCountInString(*p.Bio) > MaxBioLength {
			fields["bio"] = "must be at most 500 characters"
		}
		next.Bio = *p.Bio
	}
	if p.Location != nil {
		if utf8.RuneCountInString(*p.Location) > MaxLocationLength {
			fields["location"] = "must be at most 30 characters"
		}
		next.Location = *p.Location
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	*user = next
	return nil
}

func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "enter a valid email address"
	}
	return ""
}
