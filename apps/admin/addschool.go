package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trezcool/pta/core/school"
)

func (cli *commandLine) addSchoolCmd() *cobra.Command {
	var ns school.NewSchool
	cmd := &cobra.Command{
		Use:   "addschool",
		Short: "Create a school and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, ns.Name); err != nil {
				return err
			}
			sch, err := cli.addSchool(ns)
			if err != nil {
				return err
			}
			cli.printf("school %q created: %s\n", sch.Name, sch.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ns.Name, "name", "", "The school's name (required)")
	cmd.Flags().StringVar(&ns.Address, "address", "", "The school's address")
	cmd.Flags().StringVar(&ns.Phone, "phone", "", "The school's phone number")
	cmd.Flags().StringVar(&ns.Email, "email", "", "The school's contact email")
	return cmd
}

func (cli *commandLine) addSchool(ns school.NewSchool) (school.School, error) {
	if err := ns.Validate(cli.validate); err != nil {
		return school.School{}, err
	}
	return cli.schoolSvc.Create(context.Background(), ns)
}
