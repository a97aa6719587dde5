package types

import (
	"time"

	"github.com/google/uuid"
)

// NewPlaylistID generates a UUIDv7 playlist identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewPlaylistID() PlaylistID {
	return PlaylistID(uuid.Must(uuid.NewV7()).String())
}

// NewItemID generates a UUIDv7 item identifier for adapters that import items
// without a host-assigned ID.
func NewItemID() ItemID {
	return ItemID(uuid.Must(uuid.NewV7()).String())
}

// ParsePlaylistID validates and converts a string to PlaylistID.
// Accepts any UUID form uuid.Parse understands (hyphenated or the 32-char
// form older definitions were saved with) and returns the canonical form.
func ParsePlaylistID(s string) (PlaylistID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return PlaylistID(u.String()), nil
}

// ParseItemID validates and converts a string to ItemID.
func ParseItemID(s string) (ItemID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ItemID(u.String()), nil
}

// PlaylistIDTime extracts the creation timestamp embedded in a UUIDv7 playlist ID.
// Returns zero time for invalid or non-v7 UUIDs; caller should check IsZero().
func PlaylistIDTime(id PlaylistID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil || u.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}

// NewAPIKeyID generates a UUIDv7 identifier for a stored API key record.
func NewAPIKeyID() string {
	return uuid.Must(uuid.NewV7()).String()
}
