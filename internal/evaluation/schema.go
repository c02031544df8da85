package evaluation

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// CompileSchema compiles a job's evaluation schema. The schema gates
// parsed judgments before scoring; a judgment that fails validation is
// treated the same as an unparseable response.
func CompileSchema(doc map[string]any) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("evaluation.schema.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add evaluation schema resource: %w", err)
	}
	sch, err := compiler.Compile("evaluation.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile evaluation schema: %w", err)
	}
	return sch, nil
}

// ValidateJudgments checks a parsed judgment object against a compiled
// schema and returns flattened error strings, or nil when valid.
func ValidateJudgments(schema *jsonschema.Schema, judgments map[string]any) []string {
	err := schema.Validate(toJSONValue(judgments))
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// toJSONValue normalizes a judgment map to JSON-compatible types. Parsed
// judgments already come from encoding/json so this is mostly identity,
// but map values patched in by callers stay safe too.
func toJSONValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = toJSONValue(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = toJSONValue(v2)
		}
		return result
	default:
		return val
	}
}
