// onevdrctl is the operator CLI: account bootstrap plus terminal views of a
// user's investor pipeline, driven through the same service layer the API
// uses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/selfmadecero/onevdr/internal/config"
	"github.com/selfmadecero/onevdr/internal/database"
	"github.com/selfmadecero/onevdr/internal/domain"
	"gorm.io/gorm"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(&createAdminCmd{}, "accounts")
	commander.Register(&boardCmd{}, "pipeline")
	commander.Register(&reportCmd{}, "pipeline")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

const markdownWrap = 100

// openBackend loads configuration and connects the database.
func openBackend() (*gorm.DB, error) {
	if _, err := config.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := database.Init(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return database.GetDB(), nil
}

// findUser resolves the acting user for the pipeline commands.
func findUser(db *gorm.DB, username string) (*domain.User, error) {
	if username == "" {
		return nil, errors.New("a username is required (use -user)")
	}
	var user domain.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q not found", username)
		}
		return nil, err
	}
	return &user, nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering is unavailable.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWrap),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		log.Printf("[CTL] Markdown rendering failed: %v", err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
