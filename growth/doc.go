// Package growth simulates how a single neuron's axon and dendritic arbor
// grow through a 3-D environment, and how the synapses on that arbor form,
// strengthen, weaken, die ("ghost") and are reactivated.
//
// Everything here is single-threaded, synchronous simulation state advanced by
// caller-driven steps. Randomness is derived from an explicit seed combined
// with simulated time at the point of use, so two instances constructed with
// the same seed and fed the same steps produce identical trajectories.
//
// Operations never fail with an error. A step that cannot proceed (not enough
// energy, unknown id, wrong synapse state) returns a zero value or false and
// leaves the state untouched.
package growth
