package saturate

import "time"

const (
	DefaultIterLimit = 30
	DefaultNodeLimit = 10000
	DefaultTimeLimit = 5 * time.Second
)

// Config bounds a saturation run. A zero TimeLimit means no deadline.
type Config struct {
	IterLimit Limit
	NodeLimit Limit
	TimeLimit time.Duration
	// Workers is the number of rules searched concurrently; values below 2
	// search sequentially.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		IterLimit: LimitOf(DefaultIterLimit),
		NodeLimit: LimitOf(DefaultNodeLimit),
		TimeLimit: DefaultTimeLimit,
		Workers:   1,
	}
}

// StopReason is why a run ended. Every run ends with exactly one.
type StopReason int

const (
	Saturated StopReason = iota
	IterationLimit
	NodeLimit
	TimeLimit
	Error
)

var stopReasonNames = [...]string{
	Saturated:      "Saturated",
	IterationLimit: "IterationLimit",
	NodeLimit:      "NodeLimit",
	TimeLimit:      "TimeLimit",
	Error:          "Error",
}

// StopReasons lists every reason in display order.
func StopReasons() []StopReason {
	return []StopReason{Saturated, IterationLimit, NodeLimit, TimeLimit, Error}
}

func (r StopReason) String() string {
	if r < 0 || int(r) >= len(stopReasonNames) {
		return "Unknown"
	}
	return stopReasonNames[r]
}

// Bounded reports whether the run stopped on a resource limit rather than
// at a fixpoint or on a failure.
func (r StopReason) Bounded() bool {
	return r == IterationLimit || r == NodeLimit || r == TimeLimit
}
