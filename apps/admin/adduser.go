package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, role user.Role, class int) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = user.Role(core.CleanString(string(role), true /* lower */))

	if !role.IsValid() {
		return errors.Errorf("invalid role %q", role)
	}
	var classNumber null.Int
	if role == user.RoleStudent {
		if class < user.MinClassNumber || class > user.MaxClassNumber {
			return errors.New("students must belong to a class (1-12)")
		}
		classNumber = null.IntFrom(class)
	}
	if err := user.CheckPassword(pwd, name, email); err != nil {
		return err
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	switch {
	case err == nil:
		usr.FullName = name
		usr.Role = role
		usr.ClassNumber = classNumber
		usr.UpdatedAt = now
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
		return errors.Wrap(err, "updating user")

	case errors.Cause(err) == user.ErrNotFound:
		usr = user.User{
			FullName:    name,
			Email:       email,
			Role:        role,
			ClassNumber: classNumber,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return errors.Wrap(err, "creating user")

	default:
		return errors.Wrap(err, "finding user")
	}
}
