package cli

import (
	"fmt"
	"path/filepath"

	"github.com/Jackob-K/personal-ai-infra/internal/backup"
)

type BackupCreateCmd struct{}

func (cmd *BackupCreateCmd) Run(ctx *Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	path, err := mgr.Create()
	if err != nil {
		return err
	}
	fmt.Printf("Created backup: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (cmd *BackupListCmd) Run(ctx *Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No backups found.")
		return nil
	}

	fmt.Printf("Backups in %s:\n", mgr.BackupDir())
	for _, info := range backups {
		fmt.Printf("  %s  %s  %d bytes\n",
			info.Timestamp.Format("2006-01-02 15:04"),
			filepath.Base(info.Path),
			info.Size)
	}
	return nil
}

type BackupRestoreCmd struct {
	Path string `arg:"" help:"Backup file to restore from."`
}

func (cmd *BackupRestoreCmd) Run(ctx *Context) error {
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close storage before restore: %w", err)
	}

	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	if err := mgr.Restore(cmd.Path); err != nil {
		return err
	}
	fmt.Printf("Restored data file from: %s\n", cmd.Path)
	fmt.Println("The previous state was backed up before the restore.")
	return nil
}
