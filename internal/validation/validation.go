// Package validation checks pending user and role edits and reports the
// first failing rule per field.
package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// MaxAvatarKB is the largest accepted profile picture.
const MaxAvatarKB = 2048

// Errors maps a form field to the message of its first failing rule.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

func (e Errors) add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// UniqueFunc reports whether value is already stored in field by a record
// other than excludeID.
type UniqueFunc func(ctx context.Context, field, value string, excludeID uint) (bool, error)

type RoleInput struct {
	ID   uint
	Name string `validate:"required"`
}

type UserInput struct {
	ID                   uint
	FullName             string `validate:"required"`
	Email                string `validate:"required,email"`
	Password             string `validate:"omitempty,eqfield=PasswordConfirmation,min=6,mixedcase,symbols"`
	PasswordConfirmation string
	Avatar               *storage.File
}

// form field name and attribute label per struct field
var userFields = map[string]string{
	"FullName": "full_name",
	"Email":    "email",
	"Password": "password",
}

var imageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/bmp",
	"image/gif",
	"image/svg+xml",
	"image/webp",
}

type Validator struct {
	validate   *validator.Validate
	roleUnique UniqueFunc
	userUnique UniqueFunc
}

func New(roleUnique, userUnique UniqueFunc) *Validator {
	v := validator.New()
	_ = v.RegisterValidation("mixedcase", func(fl validator.FieldLevel) bool {
		return hasMixedCase(fl.Field().String())
	})
	_ = v.RegisterValidation("symbols", func(fl validator.FieldLevel) bool {
		return hasSymbol(fl.Field().String())
	})

	return &Validator{validate: v, roleUnique: roleUnique, userUnique: userUnique}
}

func (v *Validator) ValidateRole(ctx context.Context, in RoleInput) (Errors, error) {
	errs := Errors{}
	v.collect(errs, v.validate.Struct(in), func(string) string { return "name" })

	if _, failed := errs["name"]; !failed {
		taken, err := v.roleUnique(ctx, "name", in.Name, in.ID)
		if err != nil {
			return nil, fmt.Errorf("check role name: %w", err)
		}
		if taken {
			errs.add("name", "The role name has already been taken.")
		}
	}

	return errs, nil
}

func (v *Validator) ValidateUser(ctx context.Context, in UserInput) (Errors, error) {
	errs := Errors{}
	v.collect(errs, v.validate.Struct(in), func(f string) string { return userFields[f] })

	if err := v.checkEmailUnique(ctx, errs, in); err != nil {
		return nil, err
	}
	checkAvatar(errs, in.Avatar)

	return errs, nil
}

// ValidateUserField runs only the rules of one form field, for live feedback
// while the user is typing.
func (v *Validator) ValidateUserField(ctx context.Context, in UserInput, field string) (Errors, error) {
	errs := Errors{}

	switch field {
	case "full_name":
		v.collect(errs, v.validate.StructPartial(in, "FullName"), func(f string) string { return userFields[f] })
	case "email":
		v.collect(errs, v.validate.StructPartial(in, "Email"), func(f string) string { return userFields[f] })
		if err := v.checkEmailUnique(ctx, errs, in); err != nil {
			return nil, err
		}
	case "password", "password_confirmation":
		v.collect(errs, v.validate.StructPartial(in, "Password"), func(f string) string { return userFields[f] })
	case "avatar":
		checkAvatar(errs, in.Avatar)
	default:
		return nil, fmt.Errorf("unknown user field %q", field)
	}

	return errs, nil
}

func (v *Validator) checkEmailUnique(ctx context.Context, errs Errors, in UserInput) error {
	if _, failed := errs["email"]; failed {
		return nil
	}
	taken, err := v.userUnique(ctx, "email", in.Email, in.ID)
	if err != nil {
		return fmt.Errorf("check user email: %w", err)
	}
	if taken {
		errs.add("email", "The user email has already been taken.")
	}
	return nil
}

func (v *Validator) collect(errs Errors, err error, fieldName func(string) string) {
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.add("general", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		field := fieldName(fe.StructField())
		errs.add(field, message(field, fe.Tag(), fe.Param()))
	}
}

func checkAvatar(errs Errors, f *storage.File) {
	if f == nil {
		return
	}

	mtype := mimetype.Detect(f.Content)
	if !isImage(mtype) {
		errs.add("avatar", "The profile picture must be an image.")
		return
	}

	size := f.Size
	if size == 0 {
		size = int64(len(f.Content))
	}
	if size > MaxAvatarKB*1024 {
		errs.add("avatar", fmt.Sprintf("The profile picture must not be greater than %d kilobytes.", MaxAvatarKB))
	}
}

func isImage(mtype *mimetype.MIME) bool {
	for _, t := range imageTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

func hasMixedCase(s string) bool {
	var upper, lower bool
	for _, r := range s {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}
	return upper && lower
}

func hasSymbol(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Z, unicode.S, unicode.P) {
			return true
		}
	}
	return false
}
