package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/nhle/voiceflow/internal/credential"
	"github.com/nhle/voiceflow/internal/model"
)

// NeedsSetup reports whether first-run setup is required: a missing user
// id in the config or a missing API key in the keyring.
func NeedsSetup(cfg *model.AppConfig) bool {
	if strings.TrimSpace(cfg.UserID) == "" {
		return true
	}
	apiKey, err := credential.Get(credential.KeyAPIKey)
	return err != nil || strings.TrimSpace(apiKey) == ""
}

// RunSetup walks the user through first-run configuration: display name
// and API key. The key goes to the system keyring; everything else is
// written to the config file at path.
func RunSetup(path string, cfg *model.AppConfig) error {
	userName := cfg.UserName
	var apiKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Description("Used to label your tasks and events").
				Placeholder("alex").
				Value(&userName).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("API key").
				Description("OpenAI-compatible key used for transcription and parsing").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Validate(validateRequired("API key")),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("running setup form: %w", err)
	}

	if err := credential.Set(credential.KeyAPIKey, strings.TrimSpace(apiKey)); err != nil {
		return fmt.Errorf("storing API key: %w", err)
	}

	cfg.UserName = strings.TrimSpace(userName)
	if strings.TrimSpace(cfg.UserID) == "" {
		cfg.UserID = uuid.New().String()
	}

	if err := model.SaveConfig(path, cfg); err != nil {
		return err
	}

	fmt.Printf("Setup complete. Welcome, %s!\n", strings.TrimSpace(userName))
	return nil
}

// validateRequired returns a huh validator that rejects blank input.
func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
