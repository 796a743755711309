package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
)

// writeCSVParameters writes one row per catalog parameter.
func writeCSVParameters(w io.Writer, params []schema.Parameter) error {
	header := []string{
		"name",
		"value_type",
		"spatial_operators",
		"default_spatial_operator",
		"temporal_operators",
		"default_temporal_operator",
		"unit",
		"warning",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, p := range params {
			row := []string{
				p.Name,
				string(p.ValueType),
				joinOperators(p.SpatialOperators),
				string(p.DefaultSpatialOperator),
				joinOperators(p.TemporalOperators),
				string(p.DefaultTemporalOperator),
				p.Unit,
				p.Warning,
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeParametersText writes the catalog as a table. Default operators are starred.
func writeParametersText(w io.Writer, params []schema.Parameter, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "📚 Parameter catalog (%d parameters)\n", len(params)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Parameter", "Type", "Spatial", "Temporal", "Unit"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	var warnings []string
	for _, p := range params {
		valueType := string(p.ValueType)
		if cfg.UseColors {
			valueType = contract.GetValueTypeLabel(p.ValueType)
		}
		data = append(data, []string{
			p.Name,
			valueType,
			contract.FormatOperatorSet(p.SpatialOperators, p.DefaultSpatialOperator, cfg.UseColors),
			contract.FormatOperatorSet(p.TemporalOperators, p.DefaultTemporalOperator, cfg.UseColors),
			p.Unit,
		})
		if p.Warning != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", p.Name, p.Warning))
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
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
