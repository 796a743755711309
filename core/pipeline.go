package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/prelev/prelev/core/agg"
	"github.com/prelev/prelev/core/catalog"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
	"golang.org/x/sync/errgroup"
)

// Stage is a step of an aggregation run.
type Stage string

// Pipeline stages, in order.
const (
	StageValidating   Stage = "validating"
	StageResolving    Stage = "resolving"
	StageFetching     Stage = "fetching"
	StageSpatialPass  Stage = "spatial-pass"
	StageTemporalPass Stage = "temporal-pass"
	StageDone         Stage = "done"
)

// maxListedPeriods caps the periods named in one fallback warning.
const maxListedPeriods = 5

// Pipeline combines the series selected by a request into one ordered series.
// It holds no per-request state and may serve concurrent runs.
type Pipeline struct {
	Catalog  *catalog.Catalog
	Resolver contract.SeriesResolver
	Values   contract.ValueStore

	// Workers bounds concurrent fetches. Zero or less means one fetch per series at once.
	Workers int

	// RemarkLimit caps remarks per output value.
	RemarkLimit int

	// OnStage, when set, is called as the run enters each stage.
	OnStage func(Stage)
}

// NewPipeline creates a pipeline with default limits.
func NewPipeline(cat *catalog.Catalog, resolver contract.SeriesResolver, values contract.ValueStore) *Pipeline {
	return &Pipeline{
		Catalog:     cat,
		Resolver:    resolver,
		Values:      values,
		RemarkLimit: agg.DefaultRemarkLimit,
	}
}

// plan is a validated request with operators resolved against the catalog.
type plan struct {
	req       schema.AggregationRequest
	param     schema.Parameter
	spatial   schema.Operator
	temporal  schema.Operator
	frequency schema.Frequency
}

// seriesValues holds the documents fetched for one series.
type seriesValues struct {
	series        schema.SeriesDescriptor
	docs          []schema.ValueDocument
	useAggregates bool
}

func (p *Pipeline) enter(s Stage) {
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

// Run executes one aggregation. Rule violations are *schema.AggregationError
// values; errors from the resolver or the value store are returned unchanged.
func (p *Pipeline) Run(ctx context.Context, req schema.AggregationRequest) (*schema.AggregationResult, error) {
	p.enter(StageValidating)
	pl, err := p.validate(req)
	if err != nil {
		return nil, err
	}

	p.enter(StageResolving)
	series, err := p.resolve(ctx, pl)
	if err != nil {
		return nil, err
	}

	result := &schema.AggregationResult{
		Metadata: newMetadata(ctx, pl, series),
		Values:   []schema.ExtractedValue{},
	}
	if len(series) == 0 {
		p.enter(StageDone)
		return result, nil
	}

	p.enter(StageFetching)
	fetched, err := p.fetchAll(ctx, pl, series)
	if err != nil {
		return nil, err
	}

	p.enter(StageSpatialPass)
	combined, err := p.spatialPass(pl, fetched, &result.Metadata)
	if err != nil {
		return nil, err
	}

	p.enter(StageTemporalPass)
	values, err := agg.Rollup(combined, pl.frequency, pl.temporal, p.RemarkLimit)
	if err != nil {
		return nil, err
	}

	result.Values = values
	result.Metadata.ValuesCount = len(values)
	if len(values) > 0 {
		result.Metadata.MinDate = values[0].Period
		result.Metadata.MaxDate = values[len(values)-1].Period
	}
	p.enter(StageDone)
	return result, nil
}

// validate checks the request shape, then resolves and validates operators.
// Nothing here touches a collaborator.
func (p *Pipeline) validate(req schema.AggregationRequest) (*plan, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	param, ok := p.Catalog.Lookup(req.Parameter)
	if !ok {
		return nil, schema.NewUnsupportedParameterError(req.Parameter)
	}
	pl := &plan{req: req, param: param, frequency: req.AggregationFrequency}

	pl.temporal = req.TemporalOperator
	if pl.temporal == schema.NoOperator {
		pl.temporal = param.DefaultTemporalOperator
	}
	if err := p.Catalog.Validate(param.Name, pl.temporal, schema.TemporalContext); err != nil {
		return nil, err
	}

	switch {
	case !param.SpatiallyAggregatable() && req.SpatialOperator != schema.NoOperator:
		return nil, schema.NewUnsupportedSpatialError(param.Name, param.TemporalOperators)
	case param.SpatiallyAggregatable():
		pl.spatial = req.SpatialOperator
		if pl.spatial == schema.NoOperator {
			pl.spatial = param.DefaultSpatialOperator
		}
		if err := p.Catalog.Validate(param.Name, pl.spatial, schema.SpatialContext); err != nil {
			return nil, err
		}
	}
	return pl, nil
}

// ValidateRequest checks the request shape and fills in the default frequency.
func ValidateRequest(req *schema.AggregationRequest) error {
	req.Parameter = strings.TrimSpace(req.Parameter)
	if req.Parameter == "" {
		return schema.NewInvalidRequestError("parameter is required")
	}

	freq, err := schema.ParseFrequency(string(req.AggregationFrequency))
	if err != nil {
		return err
	}
	req.AggregationFrequency = freq

	for _, op := range []schema.Operator{req.SpatialOperator, req.TemporalOperator} {
		if op != schema.NoOperator && !op.Valid() {
			return schema.NewUnknownOperatorError(string(op))
		}
	}

	for _, d := range []string{req.StartDate, req.EndDate} {
		if d != "" && !schema.ValidDate(d) {
			return schema.NewInvalidRequestError(fmt.Sprintf("invalid date %q. expected YYYY-MM-DD", d))
		}
	}
	if req.StartDate != "" && req.EndDate != "" && req.StartDate > req.EndDate {
		return schema.NewInvalidRequestError(fmt.Sprintf("start date %s is after end date %s", req.StartDate, req.EndDate))
	}

	scope := req.Scope
	if scope.PreleveurID != "" && scope.AttachmentID != "" {
		return schema.NewInvalidRequestError("a scope selects either a préleveur or an attachment, not both")
	}
	if scope.Mode() == schema.ScopeNone {
		return schema.NewInvalidRequestError("a scope requires points, a préleveur or an attachment")
	}
	return nil
}

// resolve asks the resolver for series, keeps those matching the parameter
// and the date range, and checks overlap and frequency compatibility.
func (p *Pipeline) resolve(ctx context.Context, pl *plan) ([]schema.SeriesDescriptor, error) {
	resolved, err := p.Resolver.Resolve(ctx, schema.SeriesQuery{
		Scope:     pl.req.Scope,
		Parameter: pl.param.Name,
		StartDate: pl.req.StartDate,
		EndDate:   pl.req.EndDate,
	})
	if err != nil {
		return nil, err
	}

	series := make([]schema.SeriesDescriptor, 0, len(resolved))
	for _, s := range resolved {
		if s.Parameter != pl.param.Name {
			continue
		}
		if !schema.RangesIntersect(s.MinDate, s.MaxDate, pl.req.StartDate, pl.req.EndDate) {
			continue
		}
		series = append(series, s)
	}

	if !pl.param.SpatiallyAggregatable() && len(agg.OverlappingDays(series, pl.req.StartDate, pl.req.EndDate)) > 0 {
		return nil, schema.NewOverlapConflictError(pl.param.Name, pl.param.TemporalOperators)
	}

	if pl.frequency.IsSubDaily() {
		for _, s := range series {
			if !s.Frequency.IsSubDaily() || s.Frequency.Rank() > pl.frequency.Rank() {
				return nil, schema.NewIncompatibleFrequencyError(s.ID, s.Frequency, pl.frequency)
			}
		}
	}
	return series, nil
}

// fetchAll fetches every series concurrently. Each task writes its own slot,
// and the first failure cancels the others and is returned as is.
func (p *Pipeline) fetchAll(ctx context.Context, pl *plan, series []schema.SeriesDescriptor) ([]seriesValues, error) {
	results := make([]seriesValues, len(series))

	g, gctx := errgroup.WithContext(ctx)
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	for i, s := range series {
		useAggregates := s.Frequency.IsSubDaily() && !pl.frequency.IsSubDaily()
		g.Go(func() error {
			docs, err := p.Values.Fetch(gctx, s.ID, schema.FetchOptions{
				StartDate:     pl.req.StartDate,
				EndDate:       pl.req.EndDate,
				UseAggregates: useAggregates,
			})
			if err != nil {
				return err
			}
			results[i] = seriesValues{series: s, docs: docs, useAggregates: useAggregates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// spatialPass extracts every document and combines the series per period.
//
// Raw sub-daily samples requested at a daily or coarser frequency are first
// combined per timestamp, then folded into one value per day with the
// temporal operator. That daily figure is then combined with the daily
// values of the other series. Fallback warnings and the use of daily
// aggregates are reported in md.
func (p *Pipeline) spatialPass(pl *plan, fetched []seriesValues, md *schema.ResultMetadata) ([]schema.ExtractedValue, error) {
	timestamped := agg.NewPeriodIndex()
	daily := agg.NewPeriodIndex()

	for _, f := range fetched {
		ctx := agg.ExtractContext{
			IsSubDaily:       f.series.Frequency.IsSubDaily(),
			UseAggregates:    f.useAggregates,
			Frequency:        pl.frequency,
			TemporalOperator: pl.temporal,
		}
		var raw, other []schema.ExtractedValue
		for _, doc := range f.docs {
			if !schema.DateInRange(doc.Date, pl.req.StartDate, pl.req.EndDate) {
				continue
			}
			if agg.UsesAggregates(doc, ctx) {
				md.UsesDailyAggregates = true
			}
			values, err := agg.Extract(doc, ctx)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				if len(v.Remarks) > p.RemarkLimit {
					v.Remarks = agg.DedupeRemarks(v.Remarks, p.RemarkLimit)
				}
				if v.Time != "" {
					v.Period = v.Period + " " + v.Time
					v.Time = ""
					raw = append(raw, v)
				} else {
					other = append(other, v)
				}
			}
		}

		// Several values of one series at one key are folded first, so the
		// spatial operator sees one value per series.
		foldedRaw, err := agg.FoldByPeriod(raw, pl.temporal, p.RemarkLimit)
		if err != nil {
			return nil, err
		}
		timestamped.Add(foldedRaw...)

		foldedOther, err := agg.FoldByPeriod(other, pl.temporal, p.RemarkLimit)
		if err != nil {
			return nil, err
		}
		daily.Add(foldedOther...)
	}

	var warnings []string
	if timestamped.Len() > 0 {
		perTimestamp, fallback, err := agg.Combine(timestamped, pl.spatial, pl.temporal, p.RemarkLimit)
		if err != nil {
			return nil, err
		}
		warnings = appendFallbackWarning(warnings, pl, fallback)

		for i := range perTimestamp {
			perTimestamp[i].Period, _, _ = strings.Cut(perTimestamp[i].Period, " ")
		}
		days, err := agg.FoldByPeriod(perTimestamp, pl.temporal, p.RemarkLimit)
		if err != nil {
			return nil, err
		}
		daily.Add(days...)
	}

	combined, fallback, err := agg.Combine(daily, pl.spatial, pl.temporal, p.RemarkLimit)
	if err != nil {
		return nil, err
	}
	warnings = appendFallbackWarning(warnings, pl, fallback)
	md.Warnings = warnings
	return combined, nil
}

// appendFallbackWarning reports periods merged with the temporal operator
// because the parameter has no spatial operator.
func appendFallbackWarning(warnings []string, pl *plan, periods []string) []string {
	if len(periods) == 0 {
		return warnings
	}
	listed := periods
	if len(listed) > maxListedPeriods {
		listed = listed[:maxListedPeriods]
	}
	msg := fmt.Sprintf("%d period(s) had several values for parameter %q and were merged with temporal operator %s: %s",
		len(periods), pl.param.Name, pl.temporal, strings.Join(listed, ", "))
	if len(periods) > len(listed) {
		msg += ", ..."
	}
	return append(warnings, msg)
}

func newRunID() string {
	return uuid.NewString()
}

func newMetadata(ctx context.Context, pl *plan, series []schema.SeriesDescriptor) schema.ResultMetadata {
	runID := runIDFromContext(ctx)
	if runID == "" {
		runID = newRunID()
	}
	return schema.ResultMetadata{
		RunID:            runID,
		Parameter:        pl.param.Name,
		Unit:             pl.param.Unit,
		SpatialOperator:  pl.spatial,
		TemporalOperator: pl.temporal,
		Frequency:        pl.frequency,
		Points:           uniquePoints(series),
		SeriesCount:      len(series),
		Warning:          pl.param.Warning,
	}
}

// uniquePoints returns the sorted distinct points of series, never nil.
func uniquePoints(series []schema.SeriesDescriptor) []string {
	seen := make(map[string]bool, len(series))
	points := []string{}
	for _, s := range series {
		if s.Point == "" || seen[s.Point] {
			continue
		}
		seen[s.Point] = true
		points = append(points, s.Point)
	}
	sort.Strings(points)
	return points
}
