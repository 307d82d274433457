package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/schooldesk/core"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleStudent}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	MinClassNumber = 1
	MaxClassNumber = 12
)

type User struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	FullName     string      `db:"full_name" json:"full_name"`
	Role         Role        `db:"role" json:"role"`
	ClassNumber  null.Int    `db:"class_number" json:"class_number"`
	ProfileImage null.String `db:"profile_image" json:"profile_image"`
	PasswordHash []byte      `db:"password_hash" json:"-"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	FullName        string   `json:"full_name" validate:"required,notblank"`
	Email           string   `json:"email" validate:"required,email"`
	Role            Role     `json:"role" validate:"required,role"`
	ClassNumber     null.Int `json:"class_number" validate:"omitempty,min=1,max=12"`
	ProfileImage    string   `json:"profile_image" validate:"omitempty,url"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"omitempty,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	nu.ProfileImage = core.CleanString(nu.ProfileImage)
	if nu.Role == RoleAdmin {
		nu.ClassNumber = null.Int{} // only students belong to a class
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Email)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// QueryFilter narrows QueryUsers. Zero values mean "no constraint".
type QueryFilter struct {
	Role        Role
	ClassNumber null.Int
	// Search does a case-insensitive match on FullName or Email.
	Search string
	IDs    []string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID    string
	Email string
}
