package models

// SyncState enumerates the per-document sync states surfaced to callers.
type SyncState string

const (
	StateIdle    SyncState = "idle"
	StateSyncing SyncState = "syncing"
	StateSuccess SyncState = "success"
	StateError   SyncState = "error"
)

// SyncStatus is the externally visible sync status of one document.
// Message is set only when State is StateError.
type SyncStatus struct {
	State   SyncState
	Message string
}

var (
	StatusIdle    = SyncStatus{State: StateIdle}
	StatusSyncing = SyncStatus{State: StateSyncing}
	StatusSuccess = SyncStatus{State: StateSuccess}
)

// StatusError builds an Error status carrying the failure message.
func StatusError(msg string) SyncStatus {
	return SyncStatus{State: StateError, Message: msg}
}
