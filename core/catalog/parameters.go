package catalog

import (
	"sync"

	"github.com/prelev/prelev/schema"
)

const (
	opSum  = schema.SumOperator
	opMean = schema.MeanOperator
	opMin  = schema.MinOperator
	opMax  = schema.MaxOperator
)

func ops(o ...schema.Operator) []schema.Operator { return o }

// waterParameters is the parameter table of water withdrawal monitoring.
var waterParameters = []schema.Parameter{
	{
		Name: "volume prélevé", ValueType: schema.CumulativeValue, Unit: "m³",
		SpatialOperators: ops(opSum), DefaultSpatialOperator: opSum,
		TemporalOperators: ops(opSum), DefaultTemporalOperator: opSum,
	},
	{
		Name: "volume restitué", ValueType: schema.CumulativeValue, Unit: "m³",
		SpatialOperators: ops(opSum), DefaultSpatialOperator: opSum,
		TemporalOperators: ops(opSum), DefaultTemporalOperator: opSum,
	},
	{
		Name: "relevé d'index de compteur", ValueType: schema.CumulativeValue, Unit: "m³",
		TemporalOperators: ops(opMin, opMax), DefaultTemporalOperator: opMax,
		Warning: "Un index de compteur n'est pas un volume : utiliser « volume prélevé » pour obtenir des cumuls.",
	},
	{
		Name: "débit prélevé", ValueType: schema.InstantaneousValue, Unit: "L/s",
		SpatialOperators: ops(opSum, opMean, opMin, opMax), DefaultSpatialOperator: opSum,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
		Warning: "Les débits agrégés au pas journalier ou plus sont des débits moyens et ne doivent pas être lus comme des volumes.",
	},
	{
		Name: "débit restitué", ValueType: schema.InstantaneousValue, Unit: "L/s",
		SpatialOperators: ops(opSum, opMean, opMin, opMax), DefaultSpatialOperator: opSum,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "débit réservé", ValueType: schema.InstantaneousValue, Unit: "L/s",
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "niveau piézométrique", ValueType: schema.InstantaneousValue, Unit: "m NGR",
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "niveau d'eau", ValueType: schema.InstantaneousValue, Unit: "m",
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "chlorures", ValueType: schema.InstantaneousValue, Unit: "mg/L",
		SpatialOperators: ops(opMean, opMin, opMax), DefaultSpatialOperator: opMean,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "nitrates", ValueType: schema.InstantaneousValue, Unit: "mg/L",
		SpatialOperators: ops(opMean, opMin, opMax), DefaultSpatialOperator: opMean,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "sulfates", ValueType: schema.InstantaneousValue, Unit: "mg/L",
		SpatialOperators: ops(opMean, opMin, opMax), DefaultSpatialOperator: opMean,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "pH", ValueType: schema.InstantaneousValue, Unit: "",
		SpatialOperators: ops(opMin, opMax), DefaultSpatialOperator: opMax,
		TemporalOperators: ops(opMin, opMax), DefaultTemporalOperator: opMax,
		Warning: "Le pH est logarithmique : seules les valeurs extrêmes sont agrégées.",
	},
	{
		Name: "turbidité", ValueType: schema.InstantaneousValue, Unit: "FNU",
		SpatialOperators: ops(opMean, opMin, opMax), DefaultSpatialOperator: opMax,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "conductivité électrique", ValueType: schema.InstantaneousValue, Unit: "µS/cm",
		SpatialOperators: ops(opMean, opMin, opMax), DefaultSpatialOperator: opMean,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
	{
		Name: "température", ValueType: schema.InstantaneousValue, Unit: "°C",
		SpatialOperators: ops(opMean, opMin, opMax), DefaultSpatialOperator: opMean,
		TemporalOperators: ops(opMean, opMin, opMax), DefaultTemporalOperator: opMean,
	},
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the water withdrawal catalog, built on first use.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = MustNew(waterParameters)
	})
	return defaultCatalog
}
