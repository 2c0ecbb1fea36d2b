package telemetry

import "fmt"

// TableRows is the number of readings shown in the data table.
const TableRows = 5

// Table placeholders.
const (
	PlaceholderWaiting = "Waiting for valid data entries..."
	PlaceholderNoValid = "No valid data entries available"
)

const tableDateLayout = "02/01/2006"

// column describes one numeric cell of the data table.
type column struct {
	field Field
	scale float64
	// percent columns fall back to "0.0%" instead of N/A
	percent bool
}

var (
	colCoverage          = column{field: FieldLatitude, scale: 0.1, percent: true}
	colPreviousCoverage  = column{field: FieldLongitude, scale: 0.1, percent: true}
	colWaterQuality      = column{field: FieldPH, scale: 1}
	colGrowthRate        = column{field: FieldHDOP, scale: 0.1, percent: true}
	colPredictedCoverage = column{field: FieldAltitude, scale: 0.1, percent: true}
	colWaterTemperature  = column{field: FieldTemperature, scale: 1}
)

// TableRow is one formatted row of the drone data table.
type TableRow struct {
	Date              string `json:"date"`
	Coverage          string `json:"coverage"`
	PreviousCoverage  string `json:"previousCoverage"`
	WaterQuality      string `json:"waterQuality"`
	GrowthRate        string `json:"growthRate"`
	PredictedCoverage string `json:"predictedCoverage"`
	WaterTemperature  string `json:"waterTemperature"`
	Time              string `json:"time"`
}

// Table is the rendered data table. Placeholder is set when Rows is empty.
type Table struct {
	Rows        []TableRow `json:"rows"`
	Placeholder string     `json:"placeholder,omitempty"`
}

// RenderTable formats the five most recent readings. Missing cells are
// back-filled from the latest valid value among the displayed rows.
func RenderTable(readings []Reading) Table {
	if len(readings) == 0 {
		return Table{Rows: []TableRow{}, Placeholder: PlaceholderWaiting}
	}

	var dated []Reading
	for _, r := range readings {
		if !r.Timestamp.IsZero() {
			dated = append(dated, r)
		}
	}
	shown := SortNewestFirst(dated)
	if len(shown) > TableRows {
		shown = shown[:TableRows]
	}
	if len(shown) == 0 {
		return Table{Rows: []TableRow{}, Placeholder: PlaceholderNoValid}
	}

	rows := make([]TableRow, 0, len(shown))
	for _, r := range shown {
		rows = append(rows, TableRow{
			Date:              r.Timestamp.Format(tableDateLayout),
			Coverage:          formatCell(shown, r, colCoverage),
			PreviousCoverage:  formatCell(shown, r, colPreviousCoverage),
			WaterQuality:      formatCell(shown, r, colWaterQuality),
			GrowthRate:        formatCell(shown, r, colGrowthRate),
			PredictedCoverage: formatCell(shown, r, colPredictedCoverage),
			WaterTemperature:  formatCell(shown, r, colWaterTemperature),
			Time:              r.Timestamp.Format("15:04:05"),
		})
	}
	return Table{Rows: rows}
}

func formatCell(window []Reading, r Reading, col column) string {
	v, _ := r.Value(col.field)
	if !isValid(v) {
		var ok bool
		v, ok = LatestValid(window, col.field)
		if !ok {
			if col.percent {
				return "0.0%"
			}
			return NotAvailable
		}
	}

	v *= col.scale
	if col.percent {
		return fmt.Sprintf("%.1f%%", v)
	}
	return FormatValue(col.field, v, true)
}
