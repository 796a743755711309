// Package schema holds the types shared by the aggregation engine, its
// collaborators and the command line.
package schema

// Parameter describes one physical parameter of the catalog.
type Parameter struct {
	Name                    string     `json:"name"`
	ValueType               ValueType  `json:"valueType"`
	SpatialOperators        []Operator `json:"spatialOperators"`
	TemporalOperators       []Operator `json:"temporalOperators"`
	DefaultSpatialOperator  Operator   `json:"defaultSpatialOperator,omitempty"`
	DefaultTemporalOperator Operator   `json:"defaultTemporalOperator,omitempty"`
	Unit                    string     `json:"unit"`
	Warning                 string     `json:"warning,omitempty"`
}

// Operators returns the legal operators of the parameter for ctx.
func (p Parameter) Operators(ctx OperatorContext) []Operator {
	if ctx == TemporalContext {
		return p.TemporalOperators
	}
	return p.SpatialOperators
}

// DefaultOperator returns the default operator for ctx, or NoOperator.
func (p Parameter) DefaultOperator(ctx OperatorContext) Operator {
	if ctx == TemporalContext {
		return p.DefaultTemporalOperator
	}
	return p.DefaultSpatialOperator
}

// Supports reports whether op is legal for the parameter in ctx.
func (p Parameter) Supports(op Operator, ctx OperatorContext) bool {
	for _, legal := range p.Operators(ctx) {
		if legal == op {
			return true
		}
	}
	return false
}

// SpatiallyAggregatable reports whether values of several points may be combined.
func (p Parameter) SpatiallyAggregatable() bool {
	return len(p.SpatialOperators) > 0
}

// SeriesDescriptor identifies one stored series.
// IntegratedDays only lists consolidated dates and is used for overlap checks.
type SeriesDescriptor struct {
	ID             string    `json:"id"`
	Point          string    `json:"point"`
	Parameter      string    `json:"parameter"`
	Frequency      Frequency `json:"frequency"`
	MinDate        string    `json:"minDate"`
	MaxDate        string    `json:"maxDate"`
	IntegratedDays []string  `json:"integratedDays,omitempty"`
}

// ScopeMode tells how series are selected.
type ScopeMode string

// All scope modes.
const (
	ScopeNone         ScopeMode = ""
	ScopeByPoints     ScopeMode = "points"
	ScopeByPreleveur  ScopeMode = "preleveur"
	ScopeByAttachment ScopeMode = "attachment"
)

// Scope selects the series that take part in an aggregation.
// PointIDs narrows a préleveur or attachment scope when one is set.
type Scope struct {
	PointIDs     []string `json:"points,omitempty"`
	PreleveurID  string   `json:"preleveur,omitempty"`
	AttachmentID string   `json:"attachment,omitempty"`
}

// Mode returns the primary selection mode of the scope.
func (s Scope) Mode() ScopeMode {
	switch {
	case s.PreleveurID != "":
		return ScopeByPreleveur
	case s.AttachmentID != "":
		return ScopeByAttachment
	case len(s.PointIDs) > 0:
		return ScopeByPoints
	default:
		return ScopeNone
	}
}

// SeriesQuery is what the pipeline asks a SeriesResolver for.
type SeriesQuery struct {
	Scope     Scope
	Parameter string
	StartDate string
	EndDate   string
}

// FetchOptions narrows a ValueStore fetch.
type FetchOptions struct {
	StartDate     string
	EndDate       string
	UseAggregates bool
}

// AggregationRequest is the input of one pipeline run.
type AggregationRequest struct {
	Parameter            string    `json:"parameter"`
	SpatialOperator      Operator  `json:"spatialOperator,omitempty"`
	TemporalOperator     Operator  `json:"temporalOperator,omitempty"`
	AggregationFrequency Frequency `json:"aggregationFrequency,omitempty"`
	StartDate            string    `json:"startDate,omitempty"`
	EndDate              string    `json:"endDate,omitempty"`
	Scope                Scope     `json:"scope"`
}

// ExtractedValue is one value at one period key.
type ExtractedValue struct {
	Period  string   `json:"period"`
	Value   float64  `json:"value"`
	Remark  string   `json:"remark,omitempty"`
	Remarks []string `json:"remarks,omitempty"`

	// Time is the time of day of a raw sub-daily sample whose period is a day.
	Time string `json:"-"`
}

// ResultMetadata describes how an AggregationResult was produced.
type ResultMetadata struct {
	RunID               string    `json:"runId,omitempty"`
	Parameter           string    `json:"parameter"`
	Unit                string    `json:"unit"`
	SpatialOperator     Operator  `json:"spatialOperator,omitempty"`
	TemporalOperator    Operator  `json:"temporalOperator"`
	Frequency           Frequency `json:"frequency"`
	Points              []string  `json:"points"`
	MinDate             string    `json:"minDate,omitempty"`
	MaxDate             string    `json:"maxDate,omitempty"`
	SeriesCount         int       `json:"seriesCount"`
	ValuesCount         int       `json:"valuesCount"`
	UsesDailyAggregates bool      `json:"usesDailyAggregates"`
	Warning             string    `json:"warning,omitempty"`
	Warnings            []string  `json:"warnings,omitempty"`
}

// AggregationResult is the output of one pipeline run, values sorted by period.
type AggregationResult struct {
	Metadata ResultMetadata   `json:"metadata"`
	Values   []ExtractedValue `json:"values"`
}
