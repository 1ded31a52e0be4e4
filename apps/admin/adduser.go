package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var schoolID, name, email, role string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the user with this email. The password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, schoolID, name, email); err != nil {
				return err
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(schoolID, name, email, role, pwd)
			if err != nil {
				return err
			}
			cli.printf("user %q saved: %s\n", usr.Email, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&schoolID, "school", "", "The ID of the user's school (required)")
	cmd.Flags().StringVar(&name, "name", "", "The user's name (required)")
	cmd.Flags().StringVar(&email, "email", "", "The user's email (required)")
	cmd.Flags().StringVar(&role, "role", user.RoleAdmin, "The user's role")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(schoolID, name, email, role, pwd string) (user.User, error) {
	ctx := context.Background()

	sch, err := cli.schoolSvc.Get(ctx, core.CleanString(schoolID))
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding school")
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		nu := user.NewUser{Name: name, Email: email, Role: role, Password: pwd, PasswordConfirm: pwd}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, sch.ID, nu)
	}

	if usr.SchoolID != sch.ID {
		return user.User{}, core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
	}
	active := true
	uu := user.UpdateUser{Name: name, Role: role, IsActive: &active, Password: pwd, PasswordConfirm: pwd}
	if err = uu.Validate(ctx, usr, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Update(ctx, usr, uu)
}
