package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// InboxAccount configures one IMAP mailbox to ingest from. Passwords are
// never stored in the file itself: PasswordEnv names an environment variable,
// and the keyring is consulted as a fallback.
type InboxAccount struct {
	Name        string `json:"name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	PasswordEnv string `json:"password_env,omitempty"`
	Folder      string `json:"folder,omitempty"`
	UnseenOnly  bool   `json:"unseen_only"`
}

type accountsFile struct {
	Accounts []InboxAccount `json:"accounts"`
}

// LoadAccounts reads the IMAP accounts file. A missing file yields an empty
// account list, not an error.
func LoadAccounts(path string) ([]InboxAccount, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read accounts config: %w", err)
	}

	var parsed accountsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse accounts config: %w", err)
	}

	for i := range parsed.Accounts {
		if parsed.Accounts[i].Port == 0 {
			parsed.Accounts[i].Port = 993
		}
		if parsed.Accounts[i].Folder == "" {
			parsed.Accounts[i].Folder = "INBOX"
		}
	}

	return parsed.Accounts, nil
}
