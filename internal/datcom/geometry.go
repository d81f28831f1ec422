package datcom

import "math"

// PlanformResult is one surface's converted DATCOM geometry: a WGPLNF-
// or [HV]TPLNF-shaped record, using the same formulas for the wing and
// both tails.
type PlanformResult struct {
	Span      float64 // b
	RootChord float64 // CHRDR
	TipChord  float64 // CHRDTP
	SemiSpan  float64 // SSPN
	MAC       float64 // mean aerodynamic chord
	AR        float64
	Taper     float64
	Sweep     float64
}

// ConvertPlanform applies the fixed wing/tail geometric formulas:
// b=sqrt(A·S), CHRDR=2S/(b(1+λ)), CHRDTP=λ·CHRDR, SSPN=b/2,
// MAC=(2/3)CHRDR(1+λ+λ²)/(1+λ).
func ConvertPlanform(area, ar, taper, sweep float64) PlanformResult {
	span := math.Sqrt(ar * area)
	rootChord := 2 * area / (span * (1 + taper))
	tipChord := taper * rootChord
	mac := (2.0 / 3.0) * rootChord * (1 + taper + taper*taper) / (1 + taper)

	return PlanformResult{
		Span:      span,
		RootChord: rootChord,
		TipChord:  tipChord,
		SemiSpan:  span / 2,
		MAC:       mac,
		AR:        ar,
		Taper:     taper,
		Sweep:     sweep,
	}
}

// ConvertWing converts the wing block. Equivalent to ConvertPlanform
// on the wing's fields; kept as a named entry point mirroring the
// convert_wing_to_datcom tool.
func ConvertWing(w Wing) PlanformResult {
	return ConvertPlanform(w.Area, w.AR, w.Taper, w.Sweep)
}

// ConvertTail converts one tail surface, inferring its area/AR/taper
// from the wing when the tail itself was not specified.
func ConvertTail(t Tail, wing Wing, vertical bool) Tail {
	if t.Specified {
		return t
	}

	areaFraction := DefaultHTailAreaFraction
	ar := DefaultHTailAR
	taper := DefaultHTailTaper
	if vertical {
		areaFraction = DefaultVTailAreaFraction
		ar = DefaultVTailAR
		taper = DefaultVTailTaper
	}

	return Tail{
		Specified: true,
		Inferred:  true,
		Area:      areaFraction * wing.Area,
		AR:        ar,
		Taper:     taper,
		Sweep:     wing.Sweep,
		Vertical:  vertical,
	}
}

// AnalysisPoint is one (Mach, altitude, alpha) tuple in the flight
// envelope matrix.
type AnalysisPoint struct {
	Mach     float64
	Altitude float64
	Alpha    float64
}

// FltconMatrixTooLarge reports that NMACH·NALT·NALPHA exceeds the
// DATCOM hard limit of 400 analysis points.
type FltconMatrixTooLarge struct {
	NMach, NAlt, NAlpha, Total int
}

func (e *FltconMatrixTooLarge) Error() string {
	return "datcom: flight envelope exceeds 400-point analysis limit"
}

// GenerateFltconMatrix expands machs × altitudes × the alpha range
// into the full analysis-point matrix. NALPHA = floor((alphaEnd -
// alphaStart) / alphaStep) + 1. Returns FltconMatrixTooLarge when the
// product exceeds 400.
func GenerateFltconMatrix(machs, altitudes []float64, alphaStart, alphaEnd, alphaStep float64) ([]AnalysisPoint, error) {
	nAlpha := int(math.Floor((alphaEnd-alphaStart)/alphaStep)) + 1
	if nAlpha < 1 {
		nAlpha = 1
	}
	total := len(machs) * len(altitudes) * nAlpha
	if total > 400 {
		return nil, &FltconMatrixTooLarge{NMach: len(machs), NAlt: len(altitudes), NAlpha: nAlpha, Total: total}
	}

	points := make([]AnalysisPoint, 0, total)
	for _, m := range machs {
		for _, alt := range altitudes {
			for i := 0; i < nAlpha; i++ {
				points = append(points, AnalysisPoint{
					Mach:     m,
					Altitude: alt,
					Alpha:    alphaStart + float64(i)*alphaStep,
				})
			}
		}
	}
	return points, nil
}

// StationPositions is the SYNTHS block's component-location data:
// fractions of fuselage length converted to absolute feet.
type StationPositions struct {
	WingStation  float64
	HTailStation float64
	VTailStation float64
	CGStation    float64
}

// CalculateSynthesisPositions converts component fractions (of
// fuselage length) into absolute station positions, falling back to
// the documented defaults (wing 40%, htail 90%, vtail 65%, cg 35%) for
// any fraction the caller leaves at zero.
func CalculateSynthesisPositions(s Synthesis) StationPositions {
	wingPct := s.WingPct
	if wingPct == 0 {
		wingPct = DefaultWingStationPct
	}
	htailPct := s.HTailPct
	if htailPct == 0 {
		htailPct = DefaultHTailStationPct
	}
	vtailPct := s.VTailPct
	if vtailPct == 0 {
		vtailPct = DefaultVTailStationPct
	}
	cgPct := s.CGPct
	if cgPct == 0 {
		cgPct = DefaultCGStationPct
	}

	return StationPositions{
		WingStation:  wingPct * s.FuselageLen,
		HTailStation: htailPct * s.FuselageLen,
		VTailStation: vtailPct * s.FuselageLen,
		CGStation:    cgPct * s.FuselageLen,
	}
}

// BodyStation is one axial station of an axisymmetric fuselage: its
// position along the body axis and local diameter.
type BodyStation struct {
	X        float64
	Diameter float64
}

// DefineBodyGeometry discretizes an axisymmetric body into n evenly
// spaced stations, tapering linearly from nose to max diameter and
// from max diameter to tail.
func DefineBodyGeometry(b Body) []BodyStation {
	n := b.Stations
	if n < 2 {
		n = 2
	}
	stations := make([]BodyStation, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1) * b.Length
		stations[i] = BodyStation{X: x, Diameter: bodyDiameterAt(x, b)}
	}
	return stations
}

func bodyDiameterAt(x float64, b Body) float64 {
	switch {
	case x <= b.NoseLen && b.NoseLen > 0:
		return b.Diameter * (x / b.NoseLen)
	case x >= b.Length-b.TailLen && b.TailLen > 0:
		return b.Diameter * ((b.Length - x) / b.TailLen)
	default:
		return b.Diameter
	}
}
