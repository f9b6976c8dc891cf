package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./book-master.db"

	// DefaultPenaltyPerHour is the fine accrued per overdue hour, in
	// currency units
	DefaultPenaltyPerHour = 5

	// DefaultMaxCoverSizeBytes caps uploaded cover images at 1 MiB
	DefaultMaxCoverSizeBytes = 1 << 20
)
