package validation

import (
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"aigate/domain/dataset"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

func newStructValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names so errors read like the payload the model sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkSchema verifies a decoded dataset against the Dataset/DataPoint shapes
func (g *Gate) checkSchema(ds dataset.Dataset) StageResult {
	if !ds.Success {
		errs := append([]string(nil), ds.Errors...)
		if len(errs) == 0 {
			errs = []string{"dataset was not extracted successfully"}
		}
		return StageResult{Valid: false, Errors: errs}
	}

	var errs []string
	if err := g.validate.Struct(ds); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, describeFieldError(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	for i, p := range ds.DataPoints {
		if p.Label != "" && strings.TrimSpace(p.Label) == "" {
			errs = append(errs, fmt.Sprintf("dataPoints[%d].label must not be blank", i))
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			errs = append(errs, fmt.Sprintf("dataPoints[%d].value must be a finite number", i))
		}
	}

	return StageResult{Valid: len(errs) == 0, Errors: errs}
}

func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", path, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q rule", path, fe.Tag())
	}
}

// checkPayloadTypes verifies a raw JSON payload has the Dataset shape before it is decoded,
// so a string where a number belongs is reported instead of silently dropped
func checkPayloadTypes(raw []byte) StageResult {
	if !gjson.ValidBytes(raw) {
		return StageResult{Errors: []string{"payload is not valid JSON"}}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return StageResult{Errors: []string{"payload must be a JSON object"}}
	}

	var errs []string
	success := root.Get("success")
	switch {
	case !success.Exists():
		errs = append(errs, "success is required")
	case !isBool(success):
		errs = append(errs, "success must be a boolean")
	}

	points := root.Get("dataPoints")
	if success.Bool() {
		switch {
		case !points.Exists():
			errs = append(errs, "dataPoints is required")
		case !points.IsArray():
			errs = append(errs, "dataPoints must be an array")
		default:
			for i, p := range points.Array() {
				errs = append(errs, checkPointTypes(i, p)...)
			}
		}
	}

	if unit := root.Get("detectedUnit"); unit.Exists() && unit.Type != gjson.Null && unit.Type != gjson.String {
		errs = append(errs, "detectedUnit must be a string or null")
	}
	for _, field := range []string{"warnings", "errors"} {
		if list := root.Get(field); list.Exists() && !isStringArray(list) {
			errs = append(errs, fmt.Sprintf("%s must be an array of strings", field))
		}
	}
	if rc := root.Get("requiresConfirmation"); rc.Exists() && !isBool(rc) {
		errs = append(errs, "requiresConfirmation must be a boolean")
	}

	return StageResult{Valid: len(errs) == 0, Errors: errs}
}

func checkPointTypes(i int, p gjson.Result) []string {
	if !p.IsObject() {
		return []string{fmt.Sprintf("dataPoints[%d] must be an object", i)}
	}
	var errs []string
	label := p.Get("label")
	switch {
	case !label.Exists():
		errs = append(errs, fmt.Sprintf("dataPoints[%d].label is required", i))
	case label.Type != gjson.String:
		errs = append(errs, fmt.Sprintf("dataPoints[%d].label must be a string", i))
	}
	value := p.Get("value")
	switch {
	case !value.Exists():
		errs = append(errs, fmt.Sprintf("dataPoints[%d].value is required", i))
	case value.Type != gjson.Number:
		errs = append(errs, fmt.Sprintf("dataPoints[%d].value must be a number", i))
	}
	if rv := p.Get("rawValue"); rv.Exists() && rv.Type != gjson.String {
		errs = append(errs, fmt.Sprintf("dataPoints[%d].rawValue must be a string", i))
	}
	return errs
}

func isBool(r gjson.Result) bool {
	return r.Type == gjson.True || r.Type == gjson.False
}

func isStringArray(r gjson.Result) bool {
	if !r.IsArray() {
		return false
	}
	for _, item := range r.Array() {
		if item.Type != gjson.String {
			return false
		}
	}
	return true
}
