package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Jackob-K/personal-ai-infra/internal/keyring"
)

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	if !strings.HasPrefix(cmd.ConnectionString, "postgres://") &&
		!strings.HasPrefix(cmd.ConnectionString, "postgresql://") &&
		!strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	fmt.Println("✓ Connection string stored successfully in OS keyring")
	fmt.Println("  You can now use assistant without embedding credentials in --config")
	return nil
}

// KeyringGetCmd retrieves database connection credentials from the OS keyring
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'assistant keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Println("Connection string retrieved from keyring:")
	fmt.Println(maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes database connection credentials from the OS keyring
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string stored in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	fmt.Println("✓ Connection string removed from OS keyring")
	return nil
}

// SecretSetCmd stores a service secret (IMAP or CalDAV password) in the keyring.
type SecretSetCmd struct {
	Name  string `arg:"" help:"Secret name: 'caldav' or an inbox account name."`
	Value string `arg:"" help:"Secret value to store."`
}

func (cmd *SecretSetCmd) Run(ctx *Context) error {
	if err := keyring.SetSecret(secretName(cmd.Name), cmd.Value); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	fmt.Printf("✓ Secret for %q stored in OS keyring\n", cmd.Name)
	return nil
}

// SecretDeleteCmd removes a service secret from the keyring.
type SecretDeleteCmd struct {
	Name string `arg:"" help:"Secret name: 'caldav' or an inbox account name."`
}

func (cmd *SecretDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteSecret(secretName(cmd.Name)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no secret stored for %q", cmd.Name)
		}
		return fmt.Errorf("failed to delete secret from keyring: %w", err)
	}
	fmt.Printf("✓ Secret for %q removed from OS keyring\n", cmd.Name)
	return nil
}

func secretName(name string) keyring.Secret {
	if name == "caldav" {
		return keyring.CalDAVPassword
	}
	return keyring.IMAPPassword(name)
}

// maskPassword hides the password component of a connection string.
func maskPassword(connStr string) string {
	parsed, err := url.Parse(connStr)
	if err != nil || parsed.User == nil {
		return connStr
	}
	if _, has := parsed.User.Password(); has {
		parsed.User = url.UserPassword(parsed.User.Username(), "****")
	}
	return parsed.String()
}
