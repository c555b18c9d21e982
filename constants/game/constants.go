package game_constants

import "time"

// Core board parameters. The board is laid out as 8 color groups of 3
// tiles each; owning all 3 tiles of a group unlocks development.
const (
	BoardSize         = 24
	TilesPerGroup     = 3
	GroupCount        = 8
	StartingMoney     = 1500
	PassStartSalary   = 200
	MaxHousesPerTile  = 4
	HouseCostPerGroup = 50 // multiplied by (group index + 1)
)

// Room lifecycle parameters.
const (
	MinPlayersPerRoom = 2
	MaxPlayersPerRoom = 6
	DefaultMaxPlayers = 4

	// LobbyRecencyWindow is how recently a room must have seen activity
	// to appear in lobby listings.
	LobbyRecencyWindow = 30 * time.Minute

	// StaleCloseAge is how long a lobby may sit idle before the sweeper
	// closes it. RetentionAge is how long a closed, never-started room is
	// kept before it is reaped entirely.
	StaleCloseAge = 30 * time.Minute
	RetentionAge  = 24 * time.Hour

	SweepInterval = 5 * time.Minute

	ListingPageSize = 20
)

// Turn decision deadlines. Each decision type gets its own allotted
// thinking time; the watchdog arms with the deadline matching the
// decision the active player is expected to make.
const (
	RollDeadline     = 15 * time.Second
	PurchaseDeadline = 20 * time.Second
	ManageDeadline   = 60 * time.Second
)

// PendingIntentTimeout bounds how long a client-side predictor keeps an
// unacknowledged intent before retiring it as possibly lost.
const PendingIntentTimeout = 10 * time.Second

// AppliedIntentTTL is how long idempotency records for applied intents
// are kept in Redis.
const AppliedIntentTTL = 1 * time.Hour
