package syncer

// Status is what the transient sync indicator shows.
type Status int

const (
	// Idle means no sync activity worth showing.
	Idle Status = iota
	// Loading means a load request is in flight.
	Loading
	// Saving means a save request is in flight.
	Saving
	// Success means the last operation finished well; it reverts to Idle on its own.
	Success
	// Error means the last operation failed; it reverts to Idle on its own.
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Saving:
		return "saving"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
