package growth

// Axon growth parameters.
const (
	AxonBaseGrowthRate      = 10.0 // µm per simulated day
	MaxFactorInfluence      = 5.0  // total influence mapped onto the ±50% rate band
	AxonEnergyPerGrowthUnit = 1.0
	AxonMinEnergy           = 5.0
	AxonDiameter            = 1.0

	// MeasurementInterval is the minimum simulated time between two recorded
	// growth measurements.
	MeasurementInterval = 0.5
	MaxMeasurements     = 100

	// DirectionInertia is the share of the previous heading kept per step.
	DirectionInertia = 0.7
)

// Dendritic growth parameters.
const (
	DendriteBaseGrowthRate      = 5.0
	DendriteEnergyPerGrowthUnit = 1.2
	DendriteMinEnergy           = 3.0
	BaseBranchingProbability    = 0.1
	MaxBranchingDepth           = 6
	OptimalConnectionCount      = 20
	MaxGrowthRateModifier       = 2.0

	// PrimaryDendriteRadius and PrimaryDendriteLength place the root segments
	// created by Initialize.
	PrimaryDendriteRadius = 5.0
	PrimaryDendriteLength = 10.0

	// BranchBaseLength is scaled by BranchLengthDecay^(depth+1) for every new branch.
	BranchBaseLength  = 8.0
	BranchLengthDecay = 0.85
	BranchCostGrowth  = 1.1
	DiameterDecay     = 0.8
	RootDiameter      = 2.0

	// SegmentCostPerVolume and SynapseUpkeep make up a segment's maintenance cost.
	SegmentCostPerVolume = 0.01
	SynapseUpkeep        = 0.1
)

// Synapse parameters.
const (
	MinSynapseActivity      = 0.05
	InactivityThresholdDays = 3.0
	ElectrotonicDecayLambda = 0.5
	MaxElectrotonicLength   = 1.2

	InitialSynapseWeight    = 0.1
	GhostReactivationWeight = 0.3
	MinSynapseWeight        = 0.01
	DefaultPlasticity       = 0.01
	PlasticityExponent      = 0.8
	GhostWeightScale        = 0.1
	ActivityHistorySize     = 10

	CompetitionStrengthen = 0.01
	CompetitionWeaken     = 0.02
)

// Signal integration parameters.
const (
	SublinearExponent      = 0.85
	MinClusterSize         = 3
	ClusterExponent        = 0.7
	ClusterGain            = 0.3
	SaturationOnset        = 7
	SaturationPerSynapse   = 0.15
	MaxComplexityDepthBins = 7
)

// Resource allocation parameters.
const (
	DefaultDistributionInterval = 1.0
	MaxExpectedComplexity       = 2000.0
	ReferenceTreeEnergy         = 100.0
	allocationEpsilon           = 0.001
)
