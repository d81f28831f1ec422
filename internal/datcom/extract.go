package datcom

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/uavquery/queryengine/internal/chatclient"
)

// numericLeafPaths are every field the schema requires to be a JSON
// number. A model occasionally fills one with a placeholder string
// ("...", "unknown") instead of omitting the field; dropping just that
// leaf lets the rest of a mostly-valid object still decode.
var numericLeafPaths = []string{
	"wing.s", "wing.a", "wing.taper", "wing.sweep", "wing.dihedral", "wing.twist",
	"htail.s", "htail.a", "htail.taper", "htail.sweep",
	"vtail.s", "vtail.a", "vtail.taper", "vtail.sweep",
	"body.length", "body.diameter", "body.nose_len", "body.tail_len", "body.n_stations",
	"flight.alpha_start", "flight.alpha_end", "flight.alpha_step", "flight.weight_lb",
	"synthesis.fuselage_length", "synthesis.wing_pct", "synthesis.htail_pct", "synthesis.vtail_pct", "synthesis.cg_pct",
}

// dropNonNumericPlaceholders strips any numeric leaf the model filled
// with a non-numeric placeholder, so the rest of the object can still
// decode strictly.
func dropNonNumericPlaceholders(candidate string) string {
	for _, path := range numericLeafPaths {
		result := gjson.Get(candidate, path)
		if result.Exists() && result.Type != gjson.Number {
			if patched, err := sjson.Delete(candidate, path); err == nil {
				candidate = patched
			}
		}
	}
	return candidate
}

// extractionSchema is the strict JSON shape the chat model is asked to fill: only
// explicitly stated fields present, everything else omitted rather
// than guessed. Pointer fields distinguish "unset" from zero.
type extractionSchema struct {
	AircraftID string `json:"aircraft_id,omitempty"`

	Wing *struct {
		S       float64  `json:"s"`
		A       float64  `json:"a"`
		Taper   float64  `json:"taper"`
		Sweep   float64  `json:"sweep"`
		Airfoil string   `json:"airfoil,omitempty"`
		Dihedral *float64 `json:"dihedral,omitempty"`
		Twist    *float64 `json:"twist,omitempty"`
	} `json:"wing,omitempty"`

	HTail *struct {
		S     float64 `json:"s"`
		A     float64 `json:"a"`
		Taper float64 `json:"taper"`
		Sweep float64 `json:"sweep"`
	} `json:"htail,omitempty"`

	VTail *struct {
		S     float64 `json:"s"`
		A     float64 `json:"a"`
		Taper float64 `json:"taper"`
		Sweep float64 `json:"sweep"`
	} `json:"vtail,omitempty"`

	Body *struct {
		Length   float64 `json:"length"`
		Diameter float64 `json:"diameter"`
		NoseLen  float64 `json:"nose_len"`
		TailLen  float64 `json:"tail_len"`
		Stations int     `json:"n_stations,omitempty"`
	} `json:"body,omitempty"`

	Flight *struct {
		Machs      []float64 `json:"machs"`
		Altitudes  []float64 `json:"altitudes"`
		AlphaStart float64   `json:"alpha_start"`
		AlphaEnd   float64   `json:"alpha_end"`
		AlphaStep  float64   `json:"alpha_step"`
		WeightLb   float64   `json:"weight_lb,omitempty"`
	} `json:"flight,omitempty"`

	Synthesis *struct {
		FuselageLen float64 `json:"fuselage_length"`
		WingPct     float64 `json:"wing_pct,omitempty"`
		HTailPct    float64 `json:"htail_pct,omitempty"`
		VTailPct    float64 `json:"vtail_pct,omitempty"`
		CGPct       float64 `json:"cg_pct,omitempty"`
	} `json:"synthesis,omitempty"`
}

const extractionSystemPrompt = `You convert a UAV design question into strict JSON matching this shape:
{"aircraft_id":"...","wing":{"s":,"a":,"taper":,"sweep":,"airfoil":"","dihedral":,"twist":},"htail":{"s":,"a":,"taper":,"sweep":},"vtail":{"s":,"a":,"taper":,"sweep":},"body":{"length":,"diameter":,"nose_len":,"tail_len":,"n_stations":},"flight":{"machs":[],"altitudes":[],"alpha_start":,"alpha_end":,"alpha_step":,"weight_lb":},"synthesis":{"fuselage_length":,"wing_pct":,"htail_pct":,"vtail_pct":,"cg_pct":}}
Include a field only when the user explicitly stated it. Never invent a value. Omit whole sub-objects the user never mentioned. Respond with JSON only, no prose.`

// Extract asks the chat model for a strict JSON parameter shape,
// retrying once on a JSON decode failure.
func Extract(ctx context.Context, chat *chatclient.Client, question string) (Params, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		result, err := chat.Complete(ctx, extractionSystemPrompt, []chatclient.Message{{Role: "user", Content: question}}, nil, 0)
		if err != nil {
			return Params{}, err
		}

		var schema extractionSchema
		if err := json.Unmarshal([]byte(result.Content), &schema); err == nil {
			return schema.toParams(), nil
		}

		// The model sometimes wraps the JSON object in prose or a
		// fenced code block; fall back to locating the embedded
		// object with gjson before giving up on this attempt.
		if object, ok := extractJSONObject(result.Content); ok {
			if err := json.Unmarshal([]byte(object), &schema); err == nil {
				return schema.toParams(), nil
			}
			repaired := dropNonNumericPlaceholders(object)
			if err := json.Unmarshal([]byte(repaired), &schema); err == nil {
				return schema.toParams(), nil
			}
		}
		lastErr = fmt.Errorf("response was not strict JSON: %q", result.Content)
	}
	return Params{}, fmt.Errorf("datcom: extraction JSON unparseable after retry: %w", lastErr)
}

// extractJSONObject finds the outermost {...} substring and confirms it
// is valid JSON via gjson before handing it back for strict decoding.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := content[start : end+1]
	if !gjson.Valid(candidate) {
		return "", false
	}
	return candidate, true
}

func (s extractionSchema) toParams() Params {
	p := Params{AircraftID: s.AircraftID}

	if s.Wing != nil {
		p.Wing = Wing{Specified: true, Area: s.Wing.S, AR: s.Wing.A, Taper: s.Wing.Taper, Sweep: s.Wing.Sweep, Airfoil: s.Wing.Airfoil}
		if s.Wing.Dihedral != nil {
			p.Wing.Dihedral = *s.Wing.Dihedral
		}
		if s.Wing.Twist != nil {
			p.Wing.Twist = *s.Wing.Twist
		}
	}
	if s.HTail != nil {
		p.HTail = Tail{Specified: true, Area: s.HTail.S, AR: s.HTail.A, Taper: s.HTail.Taper, Sweep: s.HTail.Sweep}
	}
	if s.VTail != nil {
		p.VTail = Tail{Specified: true, Area: s.VTail.S, AR: s.VTail.A, Taper: s.VTail.Taper, Sweep: s.VTail.Sweep, Vertical: true}
	}
	if s.Body != nil {
		p.Body = Body{Specified: true, Length: s.Body.Length, Diameter: s.Body.Diameter, NoseLen: s.Body.NoseLen, TailLen: s.Body.TailLen, Stations: s.Body.Stations}
	}
	if s.Flight != nil {
		p.Flight = FlightConditions{
			Specified:  true,
			Machs:      s.Flight.Machs,
			Altitudes:  s.Flight.Altitudes,
			AlphaStart: s.Flight.AlphaStart,
			AlphaEnd:   s.Flight.AlphaEnd,
			AlphaStep:  s.Flight.AlphaStep,
			WeightLb:   s.Flight.WeightLb,
		}
	}
	if s.Synthesis != nil {
		p.Synthesis = Synthesis{
			Specified:   true,
			FuselageLen: s.Synthesis.FuselageLen,
			WingPct:     s.Synthesis.WingPct,
			HTailPct:    s.Synthesis.HTailPct,
			VTailPct:    s.Synthesis.VTailPct,
			CGPct:       s.Synthesis.CGPct,
		}
	}
	return p
}
