package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldExpenseID     = "expense_id"
	FieldExpenseName   = "expense_name"
	FieldAmountCents   = "amount_cents"
	FieldCategory      = "category"
	FieldPaymentMethod = "payment_method"
	FieldIsFixed       = "is_fixed"
	FieldMonthKey      = "month_key"
	FieldIsPaid        = "is_paid"
	FieldKey           = "key"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStore      = "store"
	ComponentLedger     = "ledger"
	ComponentProjection = "projection"
	ComponentArchiver   = "archiver"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentCache      = "cache"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpSetStatus  = "set_status"
	OpLoad       = "load"
	OpPersist    = "persist"
	OpRollover   = "rollover"
	OpNavigate   = "navigate"
	OpExport     = "export"
	OpPublish    = "publish"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
	OpSettings   = "settings"
	OpValidation = "validate"
	OpReset      = "reset"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
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

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id, name string, amountCents int64, category, paymentMethod string, isFixed bool) LogFields {
	f[FieldExpenseID] = id
	f[FieldExpenseName] = name
	f[FieldAmountCents] = amountCents
	f[FieldCategory] = category
	f[FieldPaymentMethod] = paymentMethod
	f[FieldIsFixed] = isFixed
	return f
}

// WithMonth adds the month key field
func (f LogFields) WithMonth(monthKey string) LogFields {
	f[FieldMonthKey] = monthKey
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, clientIP string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldClientIP] = clientIP
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
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
