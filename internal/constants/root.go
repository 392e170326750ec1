package constants

import "time"

const (
	AppName            = "modtrackin"
	DefaultKeyringUser = "store-connection"
	SessionKeyringUser = "session-token"
	SigningKeyringUser = "session-signing-key"
	DefaultConfigDir   = "~/.config/modtrackin"
	DefaultStoreFile   = "modtrackin.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Collections
	CollectionTasks    = "tasks"
	CollectionNotes    = "notes"
	CollectionHabits   = "habits"
	CollectionEmotions = "emotions"
	CollectionSleeps   = "sleeps"
	CollectionUsers    = "users"
	CollectionAccounts = "accounts"

	// Document field names shared by repositories and queries
	FieldUserID     = "userId"
	FieldCreatedAt  = "createdAt"
	FieldTimestamp  = "timestamp"
	FieldDateString = "dateString"
	FieldStartTime  = "startTime"
	FieldEmail      = "email"

	// Validation
	MinPasswordLength = 6

	// Habit defaults
	DefaultHabitCategory = "Otro"
	DefaultHabitGoalMin  = 60

	// Task defaults
	DefaultTaskCategory = "🎓 Académica"

	// Sleep
	DefaultSleepStart   = "22:00"
	DefaultSleepEnd     = "07:00"
	DefaultSleepQuality = 3
	MinSleepQuality     = 1
	MaxSleepQuality     = 5
	SleepHistoryLimit   = 30

	// Reminders
	MoodReminderHour = 20
	TaskReminderHour = 9

	// Session
	SessionTTL = 30 * 24 * time.Hour

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "modtrackin-"
	BackupFileSuffix = ".json"

	// Notify constants
	NotifierLockfileName   = "modtrackin-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.modtrackin.tray"
)

// EntityCollections lists the user-owned collections exported by backups.
var EntityCollections = []string{
	CollectionTasks,
	CollectionNotes,
	CollectionHabits,
	CollectionEmotions,
	CollectionSleeps,
}
