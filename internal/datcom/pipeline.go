package datcom

import (
	"context"
	"fmt"

	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/metrics"
	"go.uber.org/zap"
)

// Pipeline runs the nine fixed stages of DATCOM generation: extraction,
// the completeness gate, geometric conversion, flight-envelope
// expansion, synthesis positions, body geometry, tail conversion with
// inferred defaults, cross-field validation, and namelist formatting.
// There is no branching or tool selection here by design.
type Pipeline struct {
	chat   *chatclient.Client
	logger *logging.Logger
}

// NewPipeline builds a Pipeline bound to a chat client for the
// extraction stage.
func NewPipeline(chat *chatclient.Client, logger *logging.Logger) *Pipeline {
	return &Pipeline{chat: chat, logger: logger}
}

// Result is the outcome of one pipeline run: either a clarification
// (Generation only) or a generated .dat file plus its validation
// report.
type Result struct {
	Generation string
	DatFile    string
	Validation ValidationReport
}

// Run executes the full pipeline for one question. The returned error
// is always nil: an extraction failure (including a chat client
// failure) becomes a clarification request in Result.Generation, and
// later domain-level failures are captured there too, so the engine
// never crashes the run.
func (p *Pipeline) Run(ctx context.Context, question string) (Result, error) {
	params, err := Extract(ctx, p.chat, question)
	if err != nil {
		metrics.PipelineStageOutcomesTotal.WithLabelValues("extraction", "error").Inc()
		p.logger.Error(ctx, "datcom extraction failed", zap.Error(err))
		return Result{Generation: "无法解析您的输入参数，请重新描述您的飞行器几何与飞行条件。"}, nil
	}
	metrics.PipelineStageOutcomesTotal.WithLabelValues("extraction", "ok").Inc()

	if missing := Gate(params); len(missing) > 0 {
		metrics.PipelineStageOutcomesTotal.WithLabelValues("gate", "incomplete").Inc()
		return Result{Generation: ClarificationMessage(missing)}, nil
	}
	metrics.PipelineStageOutcomesTotal.WithLabelValues("gate", "ok").Inc()

	result := p.runStages(ctx, params)
	if result.DatFile != "" {
		metrics.PipelineStageOutcomesTotal.WithLabelValues("assemble", "ok").Inc()
	} else {
		metrics.PipelineStageOutcomesTotal.WithLabelValues("assemble", "error").Inc()
	}
	return result, nil
}

func (p *Pipeline) runStages(ctx context.Context, params Params) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "datcom pipeline stage panicked", zap.Any("recover", r))
			result = Result{Generation: fmt.Sprintf("%s\n\n* ERROR: pipeline failed: %v\n", result.DatFile, r)}
		}
	}()

	blocks := map[string]string{}

	wingResult := ConvertWing(params.Wing)
	blocks["WGPLNF"] = FormatPlanform("WGPLNF", wingResult)

	if _, err := GenerateFltconMatrix(params.Flight.Machs, params.Flight.Altitudes, params.Flight.AlphaStart, params.Flight.AlphaEnd, params.Flight.AlphaStep); err != nil {
		return Result{Generation: fmt.Sprintf("生成飞行包线失败: %v", err)}
	}
	blocks["FLTCON"] = FormatFltcon(params.Flight)

	synthesis := params.Synthesis
	if !synthesis.Specified {
		synthesis = Synthesis{FuselageLen: estimateFuselageLength(params)}
	}
	stations := CalculateSynthesisPositions(synthesis)

	if params.Body.Specified {
		bodyStations := DefineBodyGeometry(params.Body)
		blocks["BODY"] = FormatBody(bodyStations)
	}

	// The wing block is always present by this point (the gate requires
	// it), so both tails' areas are always inferable from it; run tail
	// conversion unconditionally rather than only when a tail or a body
	// block happens to be present.
	var notes []string
	htail := ConvertTail(params.HTail, params.Wing, false)
	blocks["HTPLNF"] = FormatPlanform("HTPLNF", ConvertPlanform(htail.Area, htail.AR, htail.Taper, htail.Sweep))
	if htail.Inferred {
		notes = append(notes, fmt.Sprintf("htail area inferred as %.1f%% of wing area (%.2f sq ft)", DefaultHTailAreaFraction*100, htail.Area))
	}

	vtail := ConvertTail(params.VTail, params.Wing, true)
	blocks["VTPLNF"] = FormatPlanform("VTPLNF", ConvertPlanform(vtail.Area, vtail.AR, vtail.Taper, vtail.Sweep))
	if vtail.Inferred {
		notes = append(notes, fmt.Sprintf("vtail area inferred as %.1f%% of wing area (%.2f sq ft)", DefaultVTailAreaFraction*100, vtail.Area))
	}
	blocks["SYNTHS"] = FormatSynths(stations)

	validation := Validate(params)

	datFile := AssembleDat(params.AircraftID, blocks)

	generation := datFile + "\n" + validation.String()
	for _, note := range notes {
		generation += "note: " + note + "\n"
	}

	return Result{Generation: generation, DatFile: datFile, Validation: validation}
}

// estimateFuselageLength derives a rough fuselage length from the
// wing's root chord when the user never gave synthesis positions or a
// body block, so station fractions have something to scale against.
func estimateFuselageLength(p Params) float64 {
	if p.Body.Specified && p.Body.Length > 0 {
		return p.Body.Length
	}
	wing := ConvertWing(p.Wing)
	return wing.RootChord * 10
}
