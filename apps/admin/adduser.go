package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool, centerID, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	if isAdmin {
		role = string(user.RoleAdmin)
	} else if role == "" {
		role = string(user.RoleCenterStaff)
	}
	if !user.Role(role).Valid() {
		return errors.Errorf("unknown role %q", role)
	}
	if user.Role(role) == user.RoleAdmin && centerID != "" {
		return errors.New("admins cannot belong to a center")
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:     uname,
			Username: uname,
			Email:    email,
			Role:     user.Role(role),
			CenterID: centerID,
			Password: pwd,
		})
		return err
	}

	usr.Email = email
	usr.Role = user.Role(role)
	usr.IsActive = true
	if centerID != "" {
		usr.CenterID = null.StringFrom(centerID)
	} else {
		usr.CenterID = null.String{}
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrSvc.Update(ctx, usr)
	return err
}
