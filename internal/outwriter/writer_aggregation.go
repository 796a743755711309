package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
)

// writeJSONAggregation marshals the result to JSON and writes it.
func writeJSONAggregation(w io.Writer, result *schema.AggregationResult) error {
	return writeJSON(w, result)
}

// writeCSVAggregation writes one row per output value.
// Remarks are joined with "|".
func writeCSVAggregation(w io.Writer, result *schema.AggregationResult, fmtFloat func(float64) string) error {
	header := []string{"period", "value", "remarks"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, v := range result.Values {
			row := []string{
				v.Period,
				fmtFloat(v.Value),
				strings.Join(valueRemarks(v.Remarks, v.Remark), "|"),
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeAggregationText writes a metadata header followed by a Period/Value/Remarks table.
func writeAggregationText(w io.Writer, result *schema.AggregationResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if err := writeAggregationHeader(w, result.Metadata, cfg); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Period", "Value", "Remarks"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxRemarks := GetMaxRemarksWidth(cfg)
	var data [][]string
	for _, v := range result.Values {
		remarks := strings.Join(valueRemarks(v.Remarks, v.Remark), ", ")
		data = append(data, []string{
			v.Period,
			fmtFloat(v.Value),
			contract.TruncateText(remarks, maxRemarks),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Aggregation completed in %v with %d workers. Cache backend: %s\n",
		duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// writeAggregationHeader writes the parameter, operators, scope and warnings of a result.
func writeAggregationHeader(w io.Writer, md schema.ResultMetadata, cfg *contract.Config) error {
	spatial := string(md.SpatialOperator)
	if spatial == "" {
		spatial = "none"
	}
	title := fmt.Sprintf("📈 %s", md.Parameter)
	if md.Unit != "" {
		title += fmt.Sprintf(" (%s)", md.Unit)
	}
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Spatial: %s | Temporal: %s | Frequency: %s\n", spatial, md.TemporalOperator, md.Frequency); err != nil {
		return err
	}

	points := "none"
	if len(md.Points) > 0 {
		points = strings.Join(md.Points, ", ")
	}
	dates := "n/a"
	if md.MinDate != "" {
		dates = md.MinDate + " to " + md.MaxDate
	}
	aggregates := "no"
	if md.UsesDailyAggregates {
		aggregates = "yes"
	}
	if _, err := fmt.Fprintf(w, "Points: %s | Period: %s | Series: %d | Values: %d | Daily aggregates: %s\n",
		points, dates, md.SeriesCount, md.ValuesCount, aggregates); err != nil {
		return err
	}

	warnings := md.Warnings
	if md.Warning != "" {
		warnings = append([]string{md.Warning}, warnings...)
	}
	for _, warning := range warnings {
		line := "⚠️  " + warning
		if cfg.UseColors {
			line = contract.WarningColor.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
