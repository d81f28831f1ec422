package datcom

import (
	"fmt"
	"strings"
)

// namelistBuilder assembles one ` $NAME ... $` block: FORTRAN-style
// real literals, comma-separated arrays, fixed field order as each
// caller appends it.
type namelistBuilder struct {
	name string
	b    strings.Builder
}

func newNamelist(name string) *namelistBuilder {
	nb := &namelistBuilder{name: name}
	fmt.Fprintf(&nb.b, " $%s\n", name)
	return nb
}

// real formats v as a FORTRAN-style real literal: always a decimal
// point, even for whole numbers and exponent forms ("1.e+06").
func real(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.Contains(s, ".") {
		if i := strings.IndexAny(s, "eE"); i >= 0 {
			s = s[:i] + "." + s[i:]
		} else {
			s += "."
		}
	}
	return s
}

func (nb *namelistBuilder) scalar(key string, v float64) *namelistBuilder {
	fmt.Fprintf(&nb.b, "  %s=%s,\n", key, real(v))
	return nb
}

func (nb *namelistBuilder) scalarInt(key string, v int) *namelistBuilder {
	fmt.Fprintf(&nb.b, "  %s=%d,\n", key, v)
	return nb
}

func (nb *namelistBuilder) array(key string, values []float64) *namelistBuilder {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = real(v)
	}
	fmt.Fprintf(&nb.b, "  %s(1)=%s,\n", key, strings.Join(parts, ","))
	return nb
}

func (nb *namelistBuilder) build() string {
	nb.b.WriteString(" $\n")
	return nb.b.String()
}

// FormatFltcon renders the FLTCON namelist: the flight envelope
// matrix's distinct Mach numbers, altitudes, and alpha range.
func FormatFltcon(fc FlightConditions) string {
	nb := newNamelist("FLTCON")
	nb.scalarInt("NMACH", len(fc.Machs))
	nb.array("MACH", fc.Machs)
	nb.scalarInt("NALT", len(fc.Altitudes))
	nb.array("ALT", fc.Altitudes)
	nAlpha := int((fc.AlphaEnd-fc.AlphaStart)/fc.AlphaStep) + 1
	nb.scalarInt("NALPHA", nAlpha)
	alphas := make([]float64, 0, nAlpha)
	for i := 0; i < nAlpha; i++ {
		alphas = append(alphas, fc.AlphaStart+float64(i)*fc.AlphaStep)
	}
	nb.array("ALSCHD", alphas)
	nb.scalar("WT", fc.WeightLb)
	return nb.build()
}

// FormatSynths renders the SYNTHS namelist: component station
// positions in feet.
func FormatSynths(pos StationPositions) string {
	nb := newNamelist("SYNTHS")
	nb.scalar("XW", pos.WingStation)
	nb.scalar("XCG", pos.CGStation)
	if pos.HTailStation != 0 {
		nb.scalar("XH", pos.HTailStation)
	}
	if pos.VTailStation != 0 {
		nb.scalar("XV", pos.VTailStation)
	}
	return nb.build()
}

// FormatBody renders the BODY namelist from discretized fuselage
// stations.
func FormatBody(stations []BodyStation) string {
	nb := newNamelist("BODY")
	nb.scalarInt("NX", len(stations))
	xs := make([]float64, len(stations))
	rs := make([]float64, len(stations))
	for i, s := range stations {
		xs[i] = s.X
		rs[i] = s.Diameter / 2
	}
	nb.array("X", xs)
	nb.array("R", rs)
	return nb.build()
}

// FormatPlanform renders a WGPLNF/HTPLNF/VTPLNF namelist from a
// converted planform result.
func FormatPlanform(name string, p PlanformResult) string {
	nb := newNamelist(name)
	nb.scalar("CHRDR", p.RootChord)
	nb.scalar("CHRDTP", p.TipChord)
	nb.scalar("SSPN", p.SemiSpan)
	nb.scalar("SAVSI", p.Sweep)
	nb.scalarInt("CHSTAT", 0)
	return nb.build()
}

// AssembleDat composes the full .dat text: a provenance comment block
// followed by namelists in the fixed order FLTCON, SYNTHS, BODY (if
// present), WGPLNF, HTPLNF (if present), VTPLNF (if present).
func AssembleDat(aircraftID string, blocks map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "* DATCOM input generated for %s\n", aircraftID)
	b.WriteString("* source: query engine DATCOM pipeline\n")

	order := []string{"FLTCON", "SYNTHS", "BODY", "WGPLNF", "HTPLNF", "VTPLNF"}
	for _, name := range order {
		if block, ok := blocks[name]; ok && block != "" {
			b.WriteString(block)
		}
	}
	return b.String()
}
