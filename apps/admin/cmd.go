package main

import (
	"database/sql"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	schoolSvc *school.Service
	usrSvc    *user.Service
	validate  *validator.Validate
	out       io.Writer
}

// rootCmd builds the command tree. Commands get a fresh tree on every run so that flags do not leak between runs.
func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pta-admin",
		Short:         "PTA administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(cli.addSchoolCmd(), cli.addUserCmd(), cli.resetPasswordCmd(), cli.migrateCmd())
	return root
}

// run executes the command in args; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.Execute()
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, a...)
}

// promptPassword reads a password without echoing it. An empty password shows the usage of `cmd`.
func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// requireFlags shows the usage of `cmd` when one of the values is empty.
func requireFlags(cmd *cobra.Command, values ...string) error {
	for _, v := range values {
		if v == "" {
			_ = cmd.Usage()
			return errHelp
		}
	}
	return nil
}
