package common

const (
	FPS      = 60
	TimeStep = 1.0 / FPS

	// Chipmunk exposes a single solver iteration count.
	SolverIterations = 20

	// A non-brief goal must hold for this many consecutive steps.
	StepsForSolution = 180
	DefaultMaxSteps  = 1000

	PixelsPerMeter = 6.0

	Gravity        = -9.8
	Density        = 0.25
	Friction       = 0.5
	Restitution    = 0.2
	AngularDamping = 0.01
	LinearDamping  = 0.0

	// Two balls closer than this (in pixels) count as touching.
	BallTouchingThresholdPx = 0.1

	// Thickness of the optional static walls placed around the scene.
	BoundingBoxThicknessPx = 10.0

	NumColors         = 6
	NumShapes         = 4
	ObjectFeatureSize = 4 + NumColors + NumShapes
)
