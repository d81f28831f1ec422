// Package datcom implements the fixed-sequence DATCOM parameter
// pipeline: extraction, geometric conversion, flight-envelope
// expansion, cross-field validation, and namelist formatting.
package datcom

// Wing holds a planform's sparse geometric description. Unset fields
// (zero value) mean "not specified by the user" — callers check
// Specified before reading the rest of the struct.
type Wing struct {
	Specified bool
	Area      float64 // S, square feet
	AR        float64 // A, aspect ratio
	Taper     float64 // λ, tip chord / root chord
	Sweep     float64 // degrees
	Airfoil   string
	Dihedral  float64 // degrees
	Twist     float64 // degrees
}

// Tail holds one empennage surface's sparse geometric description,
// shared shape for both the horizontal and vertical tail.
type Tail struct {
	Specified bool
	Inferred  bool // true when area/AR/taper came from the wing-derived default, not the user
	Area      float64
	AR        float64
	Taper     float64
	Sweep     float64
	Vertical  bool
}

// FlightConditions is the analysis envelope: one or more Mach numbers
// and altitudes, and an angle-of-attack range.
type FlightConditions struct {
	Specified  bool
	Machs      []float64
	Altitudes  []float64
	AlphaStart float64
	AlphaEnd   float64
	AlphaStep  float64
	WeightLb   float64
}

// Synthesis holds component station positions as fractions of fuselage
// length.
type Synthesis struct {
	Specified    bool
	WingPct      float64
	HTailPct     float64
	VTailPct     float64
	CGPct        float64
	FuselageLen  float64
}

// Body is an axisymmetric fuselage description.
type Body struct {
	Specified bool
	Length    float64
	Diameter  float64
	NoseLen   float64
	TailLen   float64
	Stations  int
}

// Params is the sparse record the extraction stage produces and every
// downstream conversion stage consumes. A field group's Specified flag
// being false means the user never mentioned it.
type Params struct {
	AircraftID string
	Wing       Wing
	HTail      Tail
	VTail      Tail
	Body       Body
	Flight     FlightConditions
	Synthesis  Synthesis
}

// Documented defaults: inferred tail areas as a fraction of wing area,
// and component station fractions when synthesis positions are not
// specified.
const (
	DefaultHTailAreaFraction = 0.20
	DefaultVTailAreaFraction = 0.15
	DefaultHTailAR           = 4.0
	DefaultVTailAR           = 1.5
	DefaultHTailTaper        = 0.4
	DefaultVTailTaper        = 0.4

	DefaultWingStationPct  = 0.40
	DefaultHTailStationPct = 0.90
	DefaultVTailStationPct = 0.65
	DefaultCGStationPct    = 0.35
)
