package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/Jackob-K/personal-ai-infra/internal/backup"
	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/keyring"
)

var findProcessFunc = ps.FindProcess

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false

	// Check 1: storage reachable
	storeOK := true
	if err := checkStorage(ctx); err != nil {
		fmt.Printf("❌ Storage reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		storeOK = false
	} else {
		fmt.Printf("✓ Storage reachable: OK\n")
	}

	// Check 2: planner config parses
	if _, err := ctx.Config.Load(); err != nil {
		fmt.Printf("❌ Planner config: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Planner config: OK\n")
	}

	// Check 3: inbox accounts file parses
	accounts, err := ctx.Accounts()
	if err != nil {
		fmt.Printf("❌ Inbox accounts: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else if len(accounts) == 0 {
		fmt.Printf("⚠ Inbox accounts: WARNING\n")
		fmt.Printf("   No accounts configured; 'assistant ingest' will do nothing\n")
	} else {
		fmt.Printf("✓ Inbox accounts: OK (%d configured)\n", len(accounts))
	}

	// Check 4: keyring availability (warning only, env vars still work)
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⚠ OS keyring: WARNING\n")
		fmt.Printf("   Keyring unavailable; passwords must come from environment variables\n")
	}

	// Check 5: backups present (warning only)
	if storeOK {
		if err := checkBackups(ctx); err != nil {
			fmt.Printf("⚠ Backups present: WARNING\n")
			fmt.Printf("   %v\n", err)
		} else {
			fmt.Printf("✓ Backups present: OK\n")
		}
	}

	// Check 6: concurrent serve instance
	if pid, running := serverAlreadyRunning(ctx.Store.GetConfigPath()); running {
		fmt.Printf("⚠ Server instance: WARNING\n")
		fmt.Printf("   'assistant serve' already running with PID %d\n", pid)
	} else {
		fmt.Printf("✓ Server instance: OK (none running)\n")
	}

	// Check 7: clock/timezone sanity
	if err := checkClock(); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	fmt.Println()
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	fmt.Println("All diagnostics passed.")
	return nil
}

func checkStorage(ctx *Context) error {
	if _, err := ctx.Proposals.List(""); err != nil {
		return err
	}
	return nil
}

func checkBackups(ctx *Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found; run 'assistant backup create'")
	}
	newest := backups[0]
	if time.Since(newest.Timestamp) > 7*24*time.Hour {
		return fmt.Errorf("newest backup is older than 7 days (%s)", newest.Timestamp.Format(constants.DateFormat))
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if _, err := time.LoadLocation(now.Location().String()); now.Location() != time.Local && err != nil {
		return fmt.Errorf("timezone database problem: %w", err)
	}
	return nil
}

// lockfilePath is where the serve command records its PID.
func lockfilePath(dataPath string) string {
	return filepath.Join(filepath.Dir(dataPath), "assistant-serve.lock")
}

// WriteServeLockfile records the current PID so doctor can spot a concurrent
// server instance.
func WriteServeLockfile(dataPath string) error {
	return os.WriteFile(lockfilePath(dataPath), []byte(strconv.Itoa(os.Getpid())), 0600)
}

// RemoveServeLockfile drops the PID record on shutdown.
func RemoveServeLockfile(dataPath string) {
	os.Remove(lockfilePath(dataPath))
}

// serverAlreadyRunning checks the lockfile and verifies the recorded process
// is still alive and looks like this binary. A stale lockfile is not treated
// as a running instance.
func serverAlreadyRunning(dataPath string) (int, bool) {
	content, err := os.ReadFile(lockfilePath(dataPath))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return 0, false
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return 0, false
	}
	return pid, true
}
