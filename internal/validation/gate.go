package validation

import (
	"encoding/json"

	"aigate/domain/dataset"
	"aigate/internal/trend"

	"github.com/go-playground/validator/v10"
)

// Gate is the three-stage check between model output and the renderer.
// It is safe for concurrent use and performs no I/O.
type Gate struct {
	engine   *trend.Engine
	validate *validator.Validate
}

// NewGate creates a gate that classifies trends with engine
func NewGate(engine *trend.Engine) *Gate {
	if engine == nil {
		engine = trend.NewEngine()
	}
	return &Gate{
		engine:   engine,
		validate: newStructValidator(),
	}
}

// Validate runs schema, semantic and business checks on ds. An empty narrative skips the
// narrative comparison but still classifies the trend.
func (g *Gate) Validate(ds dataset.Dataset, narrative string) Verdict {
	return g.ValidateWithAnalysis(ds, narrative, nil)
}

// ValidateWithAnalysis is Validate reusing an analysis already computed for ds.DataPoints
func (g *Gate) ValidateWithAnalysis(ds dataset.Dataset, narrative string, analysis *trend.TrendAnalysis) Verdict {
	v := Verdict{Stage: StageSchema}

	schema := g.checkSchema(ds)
	v.Errors = append(v.Errors, schema.Errors...)
	if !schema.Valid {
		v.finalize()
		return v
	}
	v.SchemaValid = true

	// warnings raised while extracting the dataset travel with it
	v.Warnings = append(v.Warnings, ds.Warnings...)
	v.RequiresConfirmation = ds.RequiresConfirmation

	v.Stage = StageSemantic
	semantic := checkSemantic(ds.DataPoints)
	v.Errors = append(v.Errors, semantic.Errors...)
	v.Warnings = append(v.Warnings, semantic.Warnings...)
	v.RequiresConfirmation = v.RequiresConfirmation || semantic.RequiresConfirmation
	if !semantic.Valid {
		v.finalize()
		return v
	}
	v.SemanticValid = true

	v.Stage = StageBusiness
	if analysis == nil {
		a := g.engine.Analyze(ds.DataPoints)
		analysis = &a
	}
	v.Direction = analysis.Direction

	business := checkBusiness(analysis.Direction, narrative)
	v.Warnings = append(v.Warnings, business.Warnings...)
	if business.Valid {
		v.BusinessValid = true
		v.Stage = StagePassed
	}

	v.finalize()
	return v
}

// ValidatePayload checks a raw JSON payload's types before decoding it, then runs Validate
func (g *Gate) ValidatePayload(raw []byte, narrative string) Verdict {
	if types := checkPayloadTypes(raw); !types.Valid {
		v := Verdict{Stage: StageSchema, Errors: types.Errors}
		v.finalize()
		return v
	}

	var ds dataset.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		v := Verdict{Stage: StageSchema, Errors: []string{"payload does not decode as a dataset: " + err.Error()}}
		v.finalize()
		return v
	}
	return g.Validate(ds, narrative)
}
