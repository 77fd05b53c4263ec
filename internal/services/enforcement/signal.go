package enforcement

import "time"

type Phase string

const (
	PhaseGreen  Phase = "GREEN"
	PhaseYellow Phase = "YELLOW"
	PhaseRed    Phase = "RED"
)

type SignalConfig struct {
	Green  time.Duration
	Yellow time.Duration
	Red    time.Duration
	// Offset shifts this clock so intersections can be desynchronized
	Offset time.Duration
}

// SignalClock is a fixed-cycle traffic light derived from wall-clock time.
type SignalClock struct {
	cfg   SignalConfig
	cycle int64
}

func NewSignalClock(cfg SignalConfig) *SignalClock {
	if cfg.Green <= 0 {
		cfg.Green = 10 * time.Second
	}
	if cfg.Yellow <= 0 {
		cfg.Yellow = 3 * time.Second
	}
	if cfg.Red <= 0 {
		cfg.Red = 10 * time.Second
	}
	return &SignalClock{
		cfg:   cfg,
		cycle: int64(cfg.Green + cfg.Yellow + cfg.Red),
	}
}

// Phase returns the signal phase at now.
func (c *SignalClock) Phase(now time.Time) Phase {
	pos := (now.UnixNano() + int64(c.cfg.Offset)) % c.cycle
	if pos < 0 {
		pos += c.cycle
	}
	switch {
	case pos < int64(c.cfg.Green):
		return PhaseGreen
	case pos < int64(c.cfg.Green+c.cfg.Yellow):
		return PhaseYellow
	default:
		return PhaseRed
	}
}

// Cycle returns the full cycle length.
func (c *SignalClock) Cycle() time.Duration { return time.Duration(c.cycle) }
