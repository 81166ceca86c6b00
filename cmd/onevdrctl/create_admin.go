package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/util"
)

// createAdminCmd bootstraps the first admin account.
type createAdminCmd struct {
	username string
	email    string
	password string
}

func (*createAdminCmd) Name() string     { return "create-admin" }
func (*createAdminCmd) Synopsis() string { return "create the bootstrap admin account" }
func (*createAdminCmd) Usage() string {
	return `onevdrctl create-admin [-username <name>] [-email <email>] [-password <password>]

  Creates an active admin user unless one with that username already exists.
`
}

func (c *createAdminCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "admin", "Username of the admin account.")
	f.StringVar(&c.email, "email", "admin@onevdr.com", "Email of the admin account.")
	f.StringVar(&c.password, "password", "admin", "Initial password.")
}

func (c *createAdminCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := openBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var existing domain.User
	if err := db.Where("username = ?", c.username).First(&existing).Error; err == nil {
		fmt.Printf("User %q already exists\n", c.username)
		return subcommands.ExitSuccess
	}

	hashed, err := util.HashPassword(c.password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		return subcommands.ExitFailure
	}

	fullName := "System Administrator"
	admin := domain.User{
		Username:       c.username,
		Email:          c.email,
		HashedPassword: hashed,
		FullName:       &fullName,
		IsActive:       true,
		IsAdmin:        true,
	}
	if err := db.Create(&admin).Error; err != nil {
		fmt.Fprintf(os.Stderr, "Error creating admin user: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Admin user %q created\n", c.username)
	fmt.Println("Please change the password after first login!")
	return subcommands.ExitSuccess
}
