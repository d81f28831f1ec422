package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uavquery/queryengine/internal/datcom"
)

type convertWingArgs struct {
	S        float64 `json:"S" jsonschema:"required,description=wing area, square feet"`
	A        float64 `json:"A" jsonschema:"required,description=aspect ratio"`
	Taper    float64 `json:"taper" jsonschema:"required,description=tip chord over root chord"`
	Sweep    float64 `json:"sweep" jsonschema:"required,description=sweep angle, degrees"`
	Airfoil  string  `json:"airfoil,omitempty"`
	Dihedral float64 `json:"dihedral,omitempty"`
	Twist    float64 `json:"twist,omitempty"`
}

// NewConvertWingToDatcom builds convert_wing_to_datcom: wing geometry
// to a WGPLNF-shaped namelist dict.
func NewConvertWingToDatcom() ToolSpec {
	return ToolSpec{
		Name:        "convert_wing_to_datcom",
		Description: "Convert wing planform geometry into DATCOM WGPLNF parameters.",
		InputSchema: schemaOf(convertWingArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args convertWingArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "convert_wing_to_datcom", Reason: "decode arguments", Err: err}
			}
			result := datcom.ConvertPlanform(args.S, args.A, args.Taper, args.Sweep)
			return planformJSON(result), nil
		},
	}
}

type convertTailArgs struct {
	Component  string  `json:"component" jsonschema:"required,description=htail or vtail"`
	S          float64 `json:"S" jsonschema:"required,description=tail area, square feet"`
	A          float64 `json:"A" jsonschema:"required,description=aspect ratio"`
	Taper      float64 `json:"taper" jsonschema:"required,description=tip chord over root chord"`
	Sweep      float64 `json:"sweep" jsonschema:"required,description=sweep angle, degrees"`
	IsVertical bool    `json:"is_vertical,omitempty"`
}

// NewConvertTailToDatcom builds convert_tail_to_datcom: tail geometry
// to an HTPLNF/VTPLNF-shaped namelist dict.
func NewConvertTailToDatcom() ToolSpec {
	return ToolSpec{
		Name:        "convert_tail_to_datcom",
		Description: "Convert an empennage surface's geometry into DATCOM HTPLNF/VTPLNF parameters.",
		InputSchema: schemaOf(convertTailArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args convertTailArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "convert_tail_to_datcom", Reason: "decode arguments", Err: err}
			}
			result := datcom.ConvertPlanform(args.S, args.A, args.Taper, args.Sweep)
			return planformJSON(result), nil
		},
	}
}

type synthesisPositionsArgs struct {
	FuselageLength float64 `json:"fuselage_length" jsonschema:"required,description=total fuselage length, feet"`
	WingPct        float64 `json:"wing_pct,omitempty"`
	HTailPct       float64 `json:"htail_pct,omitempty"`
	VTailPct       float64 `json:"vtail_pct,omitempty"`
	CGPct          float64 `json:"cg_pct,omitempty"`
}

// NewCalculateSynthesisPositions builds calculate_synthesis_positions:
// component station positions as a SYNTHS-shaped dict.
func NewCalculateSynthesisPositions() ToolSpec {
	return ToolSpec{
		Name:        "calculate_synthesis_positions",
		Description: "Calculate component station positions for the SYNTHS namelist.",
		InputSchema: schemaOf(synthesisPositionsArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args synthesisPositionsArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "calculate_synthesis_positions", Reason: "decode arguments", Err: err}
			}
			positions := datcom.CalculateSynthesisPositions(datcom.Synthesis{
				Specified:   true,
				FuselageLen: args.FuselageLength,
				WingPct:     args.WingPct,
				HTailPct:    args.HTailPct,
				VTailPct:    args.VTailPct,
				CGPct:       args.CGPct,
			})
			out, _ := json.Marshal(positions)
			return string(out), nil
		},
	}
}

type bodyGeometryArgs struct {
	Length    float64 `json:"length" jsonschema:"required,description=body length, feet"`
	Diameter  float64 `json:"diameter" jsonschema:"required,description=maximum body diameter, feet"`
	NoseLen   float64 `json:"nose_len" jsonschema:"required,description=nose section length, feet"`
	TailLen   float64 `json:"tail_len" jsonschema:"required,description=tail section length, feet"`
	NStations int     `json:"n_stations,omitempty"`
}

// NewDefineBodyGeometry builds define_body_geometry: an axisymmetric
// body discretized into a BODY-shaped dict.
func NewDefineBodyGeometry() ToolSpec {
	return ToolSpec{
		Name:        "define_body_geometry",
		Description: "Discretize an axisymmetric fuselage into DATCOM BODY parameters.",
		InputSchema: schemaOf(bodyGeometryArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args bodyGeometryArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "define_body_geometry", Reason: "decode arguments", Err: err}
			}
			stations := datcom.DefineBodyGeometry(datcom.Body{
				Specified: true,
				Length:    args.Length,
				Diameter:  args.Diameter,
				NoseLen:   args.NoseLen,
				TailLen:   args.TailLen,
				Stations:  args.NStations,
			})
			out, _ := json.Marshal(stations)
			return string(out), nil
		},
	}
}

type fltconMatrixArgs struct {
	Machs      []float64 `json:"machs" jsonschema:"required"`
	Altitudes  []float64 `json:"altitudes" jsonschema:"required"`
	AlphaStart float64   `json:"alpha_start" jsonschema:"required"`
	AlphaEnd   float64   `json:"alpha_end" jsonschema:"required"`
	AlphaStep  float64   `json:"alpha_step" jsonschema:"required"`
	WeightLb   float64   `json:"weight_lb,omitempty"`
}

// NewGenerateFltconMatrix builds generate_fltcon_matrix: the flight
// envelope expanded into the FLTCON analysis-point matrix.
func NewGenerateFltconMatrix() ToolSpec {
	return ToolSpec{
		Name:        "generate_fltcon_matrix",
		Description: "Expand a flight envelope into the DATCOM FLTCON analysis-point matrix.",
		InputSchema: schemaOf(fltconMatrixArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args fltconMatrixArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "generate_fltcon_matrix", Reason: "decode arguments", Err: err}
			}
			points, err := datcom.GenerateFltconMatrix(args.Machs, args.Altitudes, args.AlphaStart, args.AlphaEnd, args.AlphaStep)
			if err != nil {
				return "", &ToolError{Tool: "generate_fltcon_matrix", Reason: "analysis matrix exceeds limit", Err: err}
			}
			out, _ := json.Marshal(points)
			return string(out), nil
		},
	}
}

type validateParamsArgs struct {
	Wing   *wingArgsJSON   `json:"wing,omitempty"`
	Flight *flightArgsJSON `json:"flight,omitempty"`
	Body   *bodyArgsJSON   `json:"body,omitempty"`
}

type wingArgsJSON struct {
	S     float64 `json:"S"`
	A     float64 `json:"A"`
	Taper float64 `json:"taper"`
}

type flightArgsJSON struct {
	Machs      []float64 `json:"machs"`
	Altitudes  []float64 `json:"altitudes"`
	AlphaStart float64   `json:"alpha_start"`
	AlphaEnd   float64   `json:"alpha_end"`
	AlphaStep  float64   `json:"alpha_step"`
}

type bodyArgsJSON struct {
	Length  float64 `json:"length"`
	NoseLen float64 `json:"nose_len"`
	TailLen float64 `json:"tail_len"`
}

// NewValidateDatcomParameters builds validate_datcom_parameters: the
// cross-field sanity check over an aggregated parameter dict.
func NewValidateDatcomParameters() ToolSpec {
	return ToolSpec{
		Name:        "validate_datcom_parameters",
		Description: "Run cross-field sanity checks over a DATCOM parameter set.",
		InputSchema: schemaOf(validateParamsArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args validateParamsArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "validate_datcom_parameters", Reason: "decode arguments", Err: err}
			}

			params := datcom.Params{}
			if args.Wing != nil {
				params.Wing = datcom.Wing{Specified: true, Area: args.Wing.S, AR: args.Wing.A, Taper: args.Wing.Taper}
			}
			if args.Flight != nil {
				params.Flight = datcom.FlightConditions{
					Specified:  true,
					Machs:      args.Flight.Machs,
					Altitudes:  args.Flight.Altitudes,
					AlphaStart: args.Flight.AlphaStart,
					AlphaEnd:   args.Flight.AlphaEnd,
					AlphaStep:  args.Flight.AlphaStep,
				}
			}
			if args.Body != nil {
				params.Body = datcom.Body{Specified: true, Length: args.Body.Length, NoseLen: args.Body.NoseLen, TailLen: args.Body.TailLen}
			}

			report := datcom.Validate(params)
			return report.String(), nil
		},
	}
}

func planformJSON(p datcom.PlanformResult) string {
	return fmt.Sprintf(`{"span":%g,"CHRDR":%g,"CHRDTP":%g,"SSPN":%g,"MAC":%g}`, p.Span, p.RootChord, p.TipChord, p.SemiSpan, p.MAC)
}
