package consent

// Granted is the binary consent status recorded when the user gave consent
const Granted = "1"

// Store is the host's GDPR consent state.
type Store interface {
	// ConsentStatus returns the binary consent status, "1" when granted
	ConsentStatus() string
	// TCFString returns the IAB TCF consent string, "" when none was collected
	TCFString() string
}

// StaticStore is a fixed consent state
type StaticStore struct {
	Status string
	TCF    string
}

func (s StaticStore) ConsentStatus() string { return s.Status }
func (s StaticStore) TCFString() string     { return s.TCF }

// NonPersonalized reports whether requests must be built without
// personalization: GDPR applies and the user did not grant consent.
func NonPersonalized(store Store, gdprApplies string) bool {
	if gdprApplies != "true" {
		return false
	}
	if store == nil {
		return true
	}
	return store.ConsentStatus() != Granted
}
