package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
)

var (
	headerColor    = color.New(color.FgCyan, color.Bold)
	selectionColor = color.New(color.FgBlue)
	statusColor    = color.New(color.FgGreen)
	failureColor   = color.New(color.FgRed)
	wetColor       = color.New(color.FgYellow)
	dryColor       = color.New(color.FgWhite)
)

// wetThreshold highlights stations with at least this many mm.
const wetThreshold = 1.0

func render(w io.Writer, format string, result domain.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return renderTable(w, result)
}

func renderTable(w io.Writer, result domain.Result) error {
	if result.Selection != "" {
		selectionColor.Fprintln(w, result.Selection)
	}
	if len(result.Table) == 0 {
		failureColor.Fprintln(w, result.Status)
		return nil
	}
	statusColor.Fprintln(w, result.Status)
	fmt.Fprintln(w)

	// Align plain text first; escape codes would count towards cell widths.
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSTATION\tLABEL\tEASTING\tNORTHING\tTOTAL (mm)")
	for i, row := range result.Table {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\t%.0f\t%.1f\n",
			i+1, row.Reference, row.Label, row.Easting, row.Northing, row.TotalRainfall)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	headerColor.Fprintln(w, lines[0])
	for i, line := range lines[1:] {
		c := dryColor
		if i < len(result.Table) && result.Table[i].TotalRainfall >= wetThreshold {
			c = wetColor
		}
		c.Fprintln(w, line)
	}

	if len(result.FailedStations) > 0 {
		fmt.Fprintln(w)
		failureColor.Fprintf(w, "No readings from: %v\n", result.FailedStations)
	}
	return nil
}
