package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldAccountID  = "account_id"
	FieldCategoryID = "category_id"
	FieldOpID       = "operation_id"
	FieldEntityID   = "entity_id"
	FieldEntityKind = "entity_kind"
	FieldAmount     = "amount"
	FieldBalance    = "balance"
	FieldOpType     = "operation_type"
	FieldFormat     = "format"
	FieldPath       = "path"
	FieldRunID      = "run_id"
	FieldAccepted   = "accepted"
	FieldSkipped    = "skipped"
	FieldIndex      = "index"
	FieldReason     = "reason"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentAccounts  = "accounts"
	ComponentCategory  = "categories"
	ComponentOperation = "operations"
	ComponentAnalytics = "analytics"
	ComponentTransfer  = "transfer"
	ComponentCache     = "cache"
	ComponentAMQP      = "amqp"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpUpdate      = "update"
	OpRecalculate = "recalculate"
	OpImport      = "import"
	OpExport      = "export"
	OpPublish     = "publish"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity adds the kind and id of the record being touched
func (f LogFields) WithEntity(kind string, id int64) LogFields {
	f[FieldEntityKind] = kind
	f[FieldEntityID] = id
	return f
}

// WithTransfer adds import/export fields
func (f LogFields) WithTransfer(format, path string) LogFields {
	f[FieldFormat] = format
	f[FieldPath] = path
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
