// Package validation holds the sign-up form rules.
package validation

import "regexp"

var (
	usernamePattern = regexp.MustCompile(`^\w{4,20}$`)
	passwordPattern = regexp.MustCompile(`^\w{6,20}$`)
	emailPattern    = regexp.MustCompile(`^\w+([-+.]\w+)*@\w+([-.]\w+)*\.\w+([-.]\w+)*$`)
)

const (
	ErrUsernameTaken    = "Username is already taken."
	ErrPasswordMismatch = "Passwords do not match."
	ErrUsernameFormat   = "Username must be 4 to 20 letters, digits or underscores."
	ErrPasswordFormat   = "Password must be 6 to 20 letters, digits or underscores."
	ErrEmailFormat      = "Enter a valid email address."
)

// RegistrationForm mirrors the URL-encoded sign-up body.
type RegistrationForm struct {
	Username        string `form:"username"`
	Password        string `form:"password"`
	PasswordConfirm string `form:"password_tmp"`
	Mail            string `form:"mail"`
}

// ValidateRegistration runs every rule and returns all violations in a
// fixed order. taken reports whether the username is already registered.
func ValidateRegistration(form RegistrationForm, taken bool) []string {
	errs := []string{}

	if taken {
		errs = append(errs, ErrUsernameTaken)
	}
	if form.Password != form.PasswordConfirm {
		errs = append(errs, ErrPasswordMismatch)
	}
	if !ValidUsername(form.Username) {
		errs = append(errs, ErrUsernameFormat)
	}
	if !ValidPassword(form.Password) {
		errs = append(errs, ErrPasswordFormat)
	}
	if !ValidEmail(form.Mail) {
		errs = append(errs, ErrEmailFormat)
	}

	return errs
}

func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func ValidPassword(password string) bool {
	return passwordPattern.MatchString(password)
}

func ValidEmail(mail string) bool {
	return emailPattern.MatchString(mail)
}
