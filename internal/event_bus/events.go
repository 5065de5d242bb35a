package event_bus

// AllocationConfigUpdated is published after the shared allocation targets/caps
// record is persisted, from this session or a concurrent one. Subscribers must
// treat it as a signal to recompute derived figures, not as the new state.
const AllocationConfigUpdated EventType = "allocation.config.updated"

type AllocationConfigChange struct {
	Targets map[string]float64
	Caps    map[string]float64
}
