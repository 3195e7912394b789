// Package domain models Environment Agency (EA) rainfall station data and the
// pure steps of a rainfall query: validation, aggregation, joining and result
// assembly.
//
// # Data Sources
//
// Stations come from the EA hydrology station registry
// (https://environment.data.gov.uk/hydrology/id/stations), filtered with
// observedProperty=rainfall and a distance query around a British National
// Grid point. Readings come from the flood-monitoring readings endpoint
// (https://environment.data.gov.uk/flood-monitoring/data/readings) with
// parameter=rainfall and _view=full so that each item carries its measure,
// and with it the station reference.
//
// # EA Data Conventions
//
// Station references:
//
//	Opaque strings such as "E7050" or "3167". They are the join key between
//	stations and readings and are compared byte for byte.
//
// Coordinates:
//
//	The registry reports easting/northing in metres on the OSGB36 British
//	National Grid (EPSG:27700). They may arrive as JSON numbers or strings.
//	Latitude/longitude for display are always derived from the grid values.
//
// Reading values:
//
//	Millimetres of rainfall over the reading period (typically 15 minutes).
//	Values are usually numbers but malformed items carry strings, arrays
//	(duplicate readings at one timestamp) or null. Tipping-bucket faults
//	show up as negative values or implausibly large totals; anything outside
//	0–100 mm is discarded.
//
// # Ordering
//
// Results are sorted by total rainfall descending. Ties are broken by
// ascending station reference so identical inputs always produce identical
// output.
package domain
