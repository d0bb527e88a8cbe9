package account

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9]+$`)
	passwordRegex = regexp.MustCompile(`^[_!@#$%&*A-Za-z0-9]+$`)
)

// RegisterInput is the validated payload for the Register flow. Phone is
// optional and, when present, stored on the profile.
type RegisterInput struct {
	FullName        string `json:"full_name"`
	Username        string `json:"username"`
	Email           string `json:"email_address"`
	Phone           string `json:"phone_number,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Normalize trims every field and lowercases email and username. Call before
// Validate; the orchestrator persists the normalized values.
func (r *RegisterInput) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Password = strings.TrimSpace(r.Password)
	r.ConfirmPassword = strings.TrimSpace(r.ConfirmPassword)
}

// Validate applies the registration field rules. It never touches storage.
func (r RegisterInput) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.FullName,
			validation.Required.Error("Full Name is required"),
			validation.Length(6, 128).Error("Full Name must be between 6 and 128 characters"),
		),
		validation.Field(&r.Username,
			validation.Required.Error("Username is required"),
			validation.Length(6, 32).Error("Username must be between 6 and 32 characters"),
			validation.Match(usernameRegex).Error("Username must contain only lowercase letters and numbers"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
		),
	)
	if err != nil {
		return errValidation(err.Error())
	}

	if err := ValidatePassword(r.Password, r.ConfirmPassword); err != nil {
		return err
	}

	if r.Phone != "" {
		if err := ValidatePhone(r.Phone); err != nil {
			return err
		}
	}

	return nil
}

// ValidatePassword enforces the password rules shared by registration and
// password reset: 6 to 64 characters over letters, digits and `_!@#$%&*`,
// and an exact confirm match.
func ValidatePassword(password, confirm string) error {
	if password == "" {
		return errValidation("Password is required")
	}

	if len(password) < 6 {
		return errValidation("Password needs to be more than 6 letters")
	}

	if len(password) > 64 {
		return errValidation("Password needs to be less than 64 letters")
	}

	if password != confirm {
		return errValidation("Passwords do not match")
	}

	if !passwordRegex.MatchString(password) {
		return errValidation("only _,!,@,#,$,%,&,* and letters A-Z,a-z and numbers 0-9 are acceptable in password")
	}

	return nil
}

// ValidatePhone accepts internationally formatted numbers only.
func ValidatePhone(phone string) error {
	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return errValidation("Invalid phone number").
			WithMetadata(map[string]any{"phone": phone})
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return errValidation("Invalid phone number")
	}

	return nil
}

// requireFields rejects blank values before a flow opens its transaction.
func requireFields(fields map[string]string) error {
	for label, value := range fields {
		if strings.TrimSpace(value) == "" {
			return goerrors.New(label+" is required", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}
	}
	return nil
}
