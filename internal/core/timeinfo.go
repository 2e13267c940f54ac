package core

import "time"

// TimeInfo tracks the lifecycle timestamps of a group or entry
type TimeInfo struct {
	CreationTime    time.Time
	LastModified    time.Time
	LastAccess      time.Time
	Expires         bool
	ExpiryTime      time.Time
	LocationChanged time.Time
}

// NewTimeInfo stamps creation, modification, access and location with
// the current time
func NewTimeInfo() TimeInfo {
	now := Now()
	return TimeInfo{
		CreationTime:    now,
		LastModified:    now,
		LastAccess:      now,
		LocationChanged: now,
	}
}

// Now returns the current time in UTC. UTC keeps timestamps stable
// across container round trips and strips the monotonic clock reading.
func Now() time.Time {
	return time.Now().UTC()
}

// IsExpired reports whether the expiry time is set and has passed
func (t TimeInfo) IsExpired() bool {
	return t.Expires && t.ExpiryTime.Before(Now())
}

// Equals compares two TimeInfo field for field
func (t TimeInfo) Equals(other TimeInfo) bool {
	return t.CreationTime.Equal(other.CreationTime) &&
		t.LastModified.Equal(other.LastModified) &&
		t.LastAccess.Equal(other.LastAccess) &&
		t.Expires == other.Expires &&
		t.ExpiryTime.Equal(other.ExpiryTime) &&
		t.LocationChanged.Equal(other.LocationChanged)
}
