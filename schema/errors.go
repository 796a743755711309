package schema

import "fmt"

// ErrorKind classifies aggregation failures.
type ErrorKind string

// All error kinds raised by the engine.
const (
	KindUnsupportedParameter          ErrorKind = "unsupported_parameter"
	KindInvalidOperator               ErrorKind = "invalid_operator"
	KindUnsupportedSpatialAggregation ErrorKind = "unsupported_spatial_aggregation"
	KindTemporalOverlapConflict       ErrorKind = "temporal_overlap_conflict"
	KindUnknownOperator               ErrorKind = "unknown_operator"
	KindInvalidMonth                  ErrorKind = "invalid_month"
	KindInvalidRequest                ErrorKind = "invalid_request"
	KindIncompatibleFrequency         ErrorKind = "incompatible_frequency"
)

// AggregationError is returned for every rule violation detected by the engine.
// Legal holds the operators the caller may use instead, when relevant.
type AggregationError struct {
	Kind    ErrorKind
	Message string
	Legal   []Operator
}

// Sentinels for errors.Is. Matching is done on Kind only.
var (
	ErrUnsupportedParameter          = &AggregationError{Kind: KindUnsupportedParameter}
	ErrInvalidOperator               = &AggregationError{Kind: KindInvalidOperator}
	ErrUnsupportedSpatialAggregation = &AggregationError{Kind: KindUnsupportedSpatialAggregation}
	ErrTemporalOverlapConflict       = &AggregationError{Kind: KindTemporalOverlapConflict}
	ErrUnknownOperator               = &AggregationError{Kind: KindUnknownOperator}
	ErrInvalidMonth                  = &AggregationError{Kind: KindInvalidMonth}
	ErrInvalidRequest                = &AggregationError{Kind: KindInvalidRequest}
	ErrIncompatibleFrequency         = &AggregationError{Kind: KindIncompatibleFrequency}
)

// Error implements the error interface.
func (e *AggregationError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches errors of the same kind. An overlap conflict is also an
// unsupported spatial aggregation.
func (e *AggregationError) Is(target error) bool {
	t, ok := target.(*AggregationError)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return e.Kind == KindTemporalOverlapConflict && t.Kind == KindUnsupportedSpatialAggregation
}

// NewUnsupportedParameterError reports a parameter missing from the catalog.
func NewUnsupportedParameterError(name string) *AggregationError {
	return &AggregationError{
		Kind:    KindUnsupportedParameter,
		Message: fmt.Sprintf("unsupported parameter %q", name),
	}
}

// NewInvalidOperatorError reports an operator outside the legal set of ctx.
func NewInvalidOperatorError(parameter string, op Operator, ctx OperatorContext, legal []Operator) *AggregationError {
	return &AggregationError{
		Kind:    KindInvalidOperator,
		Message: fmt.Sprintf("invalid %s operator %q for parameter %q. legal operators: %s", ctx, op, parameter, FormatOperators(legal)),
		Legal:   legal,
	}
}

// NewUnsupportedSpatialError reports a spatial operator requested for a
// parameter that cannot be combined across points.
func NewUnsupportedSpatialError(parameter string, temporal []Operator) *AggregationError {
	return &AggregationError{
		Kind:    KindUnsupportedSpatialAggregation,
		Message: fmt.Sprintf("spatial aggregation is not supported for parameter %q. only temporal operators are available: %s", parameter, FormatOperators(temporal)),
		Legal:   temporal,
	}
}

// NewOverlapConflictError reports series that share integrated days for a
// parameter that cannot be combined across points.
func NewOverlapConflictError(parameter string, temporal []Operator) *AggregationError {
	return &AggregationError{
		Kind:    KindTemporalOverlapConflict,
		Message: fmt.Sprintf("several series overlap on integrated days but parameter %q cannot be aggregated spatially. only temporal operators are available: %s", parameter, FormatOperators(temporal)),
		Legal:   temporal,
	}
}

// NewUnknownOperatorError reports a token outside sum, mean, min and max.
func NewUnknownOperatorError(token string) *AggregationError {
	return &AggregationError{
		Kind:    KindUnknownOperator,
		Message: fmt.Sprintf("unknown operator %q", token),
		Legal:   AllOperators,
	}
}

// NewInvalidMonthError reports a date whose month is outside 1-12.
func NewInvalidMonthError(date string) *AggregationError {
	return &AggregationError{
		Kind:    KindInvalidMonth,
		Message: fmt.Sprintf("invalid month in date %q", date),
	}
}

// NewInvalidRequestError reports a malformed request.
func NewInvalidRequestError(msg string) *AggregationError {
	return &AggregationError{Kind: KindInvalidRequest, Message: msg}
}

// NewIncompatibleFrequencyError reports a series too coarse for the requested frequency.
func NewIncompatibleFrequencyError(seriesID string, recorded, requested Frequency) *AggregationError {
	return &AggregationError{
		Kind:    KindIncompatibleFrequency,
		Message: fmt.Sprintf("series %q is recorded at %q and cannot be aggregated at %q", seriesID, recorded, requested),
	}
}
