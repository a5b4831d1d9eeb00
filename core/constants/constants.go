package constants

import "time"

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Context keys
const (
	ContextTokenData = "token_data"
)

// Token scopes
const (
	ScopeTokenAccess = "access"
)

// Platform API
const (
	// PlatformAPITimeout bounds every upstream call so a stuck platform
	// cannot hang a reconciliation pass.
	PlatformAPITimeout = 30 * time.Second
)

// Appointment sync
const (
	// SyncWindowPastDays / SyncWindowFutureDays bound the reconciliation window.
	SyncWindowPastDays   = 30
	SyncWindowFutureDays = 60

	// DefaultSlotDurationMinutes for open-slot suggestions.
	DefaultSlotDurationMinutes = 60

	// SyncLockTTL caps how long a per-tenant reconciliation lock can be held.
	SyncLockTTL = 10 * time.Minute

	// SettingsCacheTTL for tenant integration settings.
	SettingsCacheTTL = 5 * time.Minute
)
