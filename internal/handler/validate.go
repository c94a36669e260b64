package handler

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Structural body validation against small embedded kin-openapi schemas,
// ahead of any business-rule check. There is no openapi.yaml to
// regenerate a full server interface from, so the schemas a codegen step
// would normally produce are written out by hand here, scoped to the
// shift-create, clock-event and manual-entry-create POST bodies. Other
// bodies are decoded without schema validation.

var shiftCreateSchema = openapi3.NewObjectSchema().
	WithProperty("project_id", openapi3.NewUUIDSchema()).
	WithProperty("worker_id", openapi3.NewUUIDSchema()).
	WithProperty("date", openapi3.NewStringSchema()).
	WithProperty("start_time", openapi3.NewStringSchema()).
	WithProperty("end_time", openapi3.NewStringSchema()).
	WithRequired([]string{"worker_id", "date", "start_time", "end_time"})

var attendanceClockSchema = openapi3.NewObjectSchema().
	WithProperty("type", openapi3.NewStringSchema().WithEnum("in", "out")).
	WithProperty("time_selected_local", openapi3.NewStringSchema()).
	WithRequired([]string{"type", "time_selected_local"})

var timesheetEntryCreateSchema = openapi3.NewObjectSchema().
	WithProperty("user_id", openapi3.NewUUIDSchema()).
	WithProperty("work_date", openapi3.NewStringSchema()).
	WithProperty("minutes", openapi3.NewInt64Schema()).
	WithRequired([]string{"user_id", "work_date", "minutes"})

// validateBody decodes raw JSON into a generic value and structurally
// validates it against schema, returning a single combined error message
// suitable for a validation error if it fails.
func validateBody(raw []byte, schema *openapi3.Schema) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := schema.VisitJSON(value); err != nil {
		return fmt.Errorf("request body failed validation: %w", err)
	}
	return nil
}
