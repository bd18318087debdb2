package log

// Common field names for structured logging
const (
	FieldComponent       = "component"
	FieldRequestID       = "request_id"
	FieldClientIP        = "client_ip"
	FieldMethod          = "method"
	FieldPath            = "path"
	FieldQuery           = "query"
	FieldStatusCode      = "status_code"
	FieldDuration        = "duration_ms"
	FieldBytes           = "bytes"
	FieldSuccess         = "success"
	FieldError           = "error"
	FieldErrorKind       = "error_kind"
	FieldOperation       = "operation"
	FieldExpenseID       = "expense_id"
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldConvertedAmount = "converted_amount"
	FieldExchangeRate    = "exchange_rate"
	FieldCategory        = "category"
	FieldRateSource      = "rate_source"
	FieldRateCount       = "rate_count"
	FieldTotal           = "total"
	FieldTier            = "tier"
	FieldPreviousTier    = "previous_tier"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentRates     = "rates"
	ComponentConverter = "converter"
	ComponentLifeState = "lifestate"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpConvert  = "convert"
	OpRefresh  = "refresh"
	OpFallback = "fallback"
	OpExport   = "export"
	OpImport   = "import"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id string, amount float64, currency string, converted float64, category string) LogFields {
	f[FieldExpenseID] = id
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	f[FieldConvertedAmount] = converted
	f[FieldCategory] = category
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
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
