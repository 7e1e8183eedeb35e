// Package pattern tracks statistics of opponent behavior within a session.
package pattern

// Signal names one observed behavior channel.
type Signal string

// Signals sampled by the engine's input handler.
const (
	// SignalAttackRange is the separation at which the player starts a windup.
	SignalAttackRange Signal = "attack_range"

	// SignalHeavyShare samples 1 for a heavy windup and 0 for a light one.
	SignalHeavyShare Signal = "heavy_share"

	// SignalDashSeparation is the separation at which the player dashes.
	SignalDashSeparation Signal = "dash_separation"

	// SignalGuard samples the separation on each guard press.
	SignalGuard Signal = "guard"

	// SignalReload is the ammo left when the player reloads.
	SignalReload Signal = "reload_ammo"

	// SignalShot samples the separation of each shot fired.
	SignalShot Signal = "shot"
)

// Signals returns every known signal.
func Signals() []Signal {
	return []Signal{
		SignalAttackRange,
		SignalHeavyShare,
		SignalDashSeparation,
		SignalGuard,
		SignalReload,
		SignalShot,
	}
}

// IsValid returns true if the signal is known.
func (s Signal) IsValid() bool {
	for _, known := range Signals() {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s Signal) String() string {
	return string(s)
}
