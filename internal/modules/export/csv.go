// Package export serializes run results for download: the two CSV tables
// and the zipped map bundle.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/aristath/boothmap/internal/domain"
)

// summaryHeader uses the unit kind for the first two columns, so an AC run
// exports "AC, AC_Name, ..." and a PC run "PC, PC_Name, ...".
func summaryHeader(kind domain.UnitKind) []string {
	prefix := "AC"
	if kind == domain.KindPC {
		prefix = "PC"
	}
	return []string{
		prefix, prefix + "_Name",
		"Total_Booths", "Selected_Booths", "Status", "Reason", "Samples_Requested",
	}
}

var selectionHeader = []string{
	"state", "district", "district_name", "pc", "pc_name",
	"ac", "ac_name", "booth", "booth_name", "cluster", "latitude", "longitude",
}

// WriteSummaryCSV writes the summary table in its canonical column order
func WriteSummaryCSV(w io.Writer, kind domain.UnitKind, records []domain.SummaryRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader(kind)); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.UnitCode,
			rec.UnitName,
			strconv.Itoa(rec.TotalBooths),
			strconv.Itoa(rec.SelectedBooths),
			string(rec.Status),
			rec.Reason,
			strconv.Itoa(rec.SamplesRequested),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row for unit %s: %w", rec.UnitCode, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSelectionsCSV writes the selected booths table in its canonical column order
func WriteSelectionsCSV(w io.Writer, records []domain.SelectionRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(selectionHeader); err != nil {
		return fmt.Errorf("failed to write selections header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.State,
			rec.District,
			rec.DistrictName,
			rec.PC,
			rec.PCName,
			rec.AC,
			rec.ACName,
			rec.Booth,
			rec.BoothName,
			strconv.Itoa(rec.Cluster),
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write selection row for booth %s: %w", rec.Booth, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
