package session

// Fix is a geolocation reading.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the fix carries a signal. (0,0) is the provider's
// "no fix yet" sentinel, not a coordinate check.
func (f Fix) Valid() bool {
	return f.Latitude != 0 || f.Longitude != 0
}

// LocationTracker keeps the most recent valid fix of a session.
// It is not safe for concurrent use; the Scheduler serialises access to it.
type LocationTracker struct {
	last  Fix
	ready bool
}

// OnFix adopts fix if it is valid. It returns true only for the first valid
// fix since the last Reset.
func (t *LocationTracker) OnFix(fix Fix) (becameReady bool) {
	if !fix.Valid() {
		return false
	}
	t.last = fix
	if t.ready {
		return false
	}
	t.ready = true
	return true
}

// LastValidFix returns the most recent valid fix, if any.
func (t *LocationTracker) LastValidFix() (Fix, bool) {
	return t.last, t.ready
}

// Ready reports whether a valid fix has been seen.
func (t *LocationTracker) Ready() bool {
	return t.ready
}

// Reset forgets the last fix.
func (t *LocationTracker) Reset() {
	t.last = Fix{}
	t.ready = false
}
