package growth

import (
	"fmt"

	"github.com/google/uuid"
)

// SynapseState is the lifecycle stage of a synapse.
type SynapseState uint8

const (
	Active   SynapseState = iota // transmitting
	Weakened                     // idle or depressed, may recover
	Ghost                        // dead until explicitly reactivated
)

func (s SynapseState) String() string {
	switch s {
	case Active:
		return "active"
	case Weakened:
		return "weakened"
	case Ghost:
		return "ghost"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s SynapseState) MarshalText() ([]byte, error) {
	if s > Ghost {
		return nil, fmt.Errorf("invalid synapse state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *SynapseState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = Active
	case "weakened":
		*s = Weakened
	case "ghost":
		*s = Ghost
	default:
		return fmt.Errorf("unknown synapse state %q", text)
	}
	return nil
}

// Synapse is a connection from a source neuron onto a dendritic segment.
type Synapse struct {
	id                   uuid.UUID
	sourceNeuronID       uuid.UUID
	weight               float32
	position             Position
	electrotonicDistance float32
	state                SynapseState
	activityHistory      []float32
	lastActive           float32
	plasticity           float32
}

// NewSynapse creates an active synapse with default weight and plasticity.
func NewSynapse(id, source uuid.UUID, pos Position, electrotonicDistance float32) *Synapse {
	return NewSynapseWithParams(id, source, pos, electrotonicDistance, InitialSynapseWeight, DefaultPlasticity)
}

// NewSynapseWithParams creates an active synapse with explicit weight and
// plasticity. Weight is clamped to [0,1] and distance to [0,MaxElectrotonicLength].
func NewSynapseWithParams(id, source uuid.UUID, pos Position, electrotonicDistance, weight, plasticity float32) *Synapse {
	if plasticity != plasticity || plasticity < 0 {
		plasticity = 0
	}
	return &Synapse{
		id:                   id,
		sourceNeuronID:       source,
		weight:               clamp01(weight),
		position:             pos,
		electrotonicDistance: clampFloat(electrotonicDistance, 0, MaxElectrotonicLength),
		state:                Active,
		activityHistory:      make([]float32, 0, ActivityHistorySize),
		plasticity:           plasticity,
	}
}

// UpdateActivity records an activity sample at time now. Activity above
// MinSynapseActivity refreshes the synapse and revives a weakened one.
func (s *Synapse) UpdateActivity(now, level float32) {
	if len(s.activityHistory) == ActivityHistorySize {
		copy(s.activityHistory, s.activityHistory[1:])
		s.activityHistory = s.activityHistory[:ActivityHistorySize-1]
	}
	s.activityHistory = append(s.activityHistory, level)

	if level > MinSynapseActivity {
		s.lastActive = now
		if s.state == Weakened {
			s.state = Active
		}
	}
}

// AverageActivity is the mean of the activity history, 0 when empty.
func (s *Synapse) AverageActivity() float32 {
	if len(s.activityHistory) == 0 {
		return 0
	}
	var sum float32
	for _, v := range s.activityHistory {
		sum += v
	}
	return sum / float32(len(s.activityHistory))
}

// CheckInactivity demotes an active synapse that has been silent for longer
// than InactivityThresholdDays. It reports whether a demotion happened.
func (s *Synapse) CheckInactivity(now float32) bool {
	if s.state != Active || now-s.lastActive <= InactivityThresholdDays {
		return false
	}
	s.state = Weakened
	return true
}

// Strengthen applies potentiation with soft saturation near 1.
func (s *Synapse) Strengthen(amount float32) {
	amount = sanitizeAmount(amount)
	delta := s.plasticity * amount * powf(1-s.weight, PlasticityExponent)
	if delta != delta {
		delta = 0
	}
	s.weight = clampFloat(s.weight+delta, MinSynapseWeight, 1)
}

// Weaken applies depression. Dropping below MinSynapseWeight pins the
// weight there and marks a live synapse Weakened.
func (s *Synapse) Weaken(amount float32) {
	amount = sanitizeAmount(amount)
	delta := s.plasticity * amount * powf(s.weight, PlasticityExponent)
	if delta != delta {
		delta = 0
	}
	s.weight -= delta
	if s.weight != s.weight || s.weight < MinSynapseWeight {
		s.weight = MinSynapseWeight
		if s.state != Ghost {
			s.state = Weakened
		}
	}
	if s.weight > 1 {
		s.weight = 1
	}
}

// ConvertToGhost kills a weakened synapse, scaling its weight down.
func (s *Synapse) ConvertToGhost() bool {
	if s.state != Weakened {
		return false
	}
	s.state = Ghost
	s.weight *= GhostWeightScale
	return true
}

// Reactivate brings a ghost synapse back with GhostReactivationWeight.
func (s *Synapse) Reactivate() bool {
	if s.state != Ghost {
		return false
	}
	s.state = Active
	s.weight = GhostReactivationWeight
	return true
}

// EffectiveStrength is the weight attenuated by electrotonic distance.
// Only active synapses transmit.
func (s *Synapse) EffectiveStrength() float32 {
	if s.state != Active {
		return 0
	}
	return s.weight * expf(-s.electrotonicDistance/ElectrotonicDecayLambda)
}

// ID returns the synapse id.
func (s *Synapse) ID() uuid.UUID { return s.id }

// SourceNeuronID returns the presynaptic neuron id.
func (s *Synapse) SourceNeuronID() uuid.UUID { return s.sourceNeuronID }

// Weight returns the current weight.
func (s *Synapse) Weight() float32 { return s.weight }

// Position returns where the synapse sits.
func (s *Synapse) Position() Position { return s.position }

// ElectrotonicDistance returns the distance used for attenuation.
func (s *Synapse) ElectrotonicDistance() float32 { return s.electrotonicDistance }

// State returns the lifecycle state.
func (s *Synapse) State() SynapseState { return s.state }

// LastActive returns the last time activity exceeded the threshold.
func (s *Synapse) LastActive() float32 { return s.lastActive }

// Plasticity returns the learning rate.
func (s *Synapse) Plasticity() float32 { return s.plasticity }

// ActivityHistory returns the recent samples, oldest first.
func (s *Synapse) ActivityHistory() []float32 { return s.activityHistory }
