package constants

const (
	AppName            = "assistant"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/assistant/assistant.db"
	Version            = "v0.4.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time-of-day format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Day window defaults used when the planner config does not override them
	DefaultDayStart = "05:00"
	DefaultDayEnd   = "22:00"

	// Proposal field bounds
	MinPriority    = 1
	MaxPriority    = 5
	MaxDurationMin = 600

	// Classifier fallback durations (minutes)
	ActionableDurationMin = 45
	FYIDurationMin        = 20

	// Travel fallback when no provider is configured
	DefaultTravelMinutes = 30

	// Backup retention
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "assistant-"
)
