package storage

// DefaultDescription is used for columns without a curated description.
const DefaultDescription = "Data column"

var columnDescriptions = map[string]map[string]string{
	"masterbom_clean": {
		"part_id_std":      "Standardized part ID (cleaned)",
		"part_id_raw":      "Original part ID from source",
		"Item Description": "Part description",
		"Supplier Name":    "Primary supplier name",
		"PSW":              "Part Submission Warrant status",
		"FAR Status":       "First Article Report status",
		"PPAP Details":     "Production Part Approval Process details",
	},
	"plant_item_status": {
		"part_id_std":   "Standardized part ID",
		"project_plant": "Project/plant identifier",
		"raw_status":    "Original status value (X/D/0/blank)",
		"status_class":  "Classified status (active/inactive/new/duplicate)",
		"is_duplicate":  "Whether part is marked as duplicate",
		"is_new":        "Whether part is new to project/plant",
		"n_active":      "Count of active plants for this part",
		"n_inactive":    "Count of inactive plants for this part",
	},
	"fact_parts": {
		"part_id_std":         "Standardized part ID (primary key)",
		"psw_ok":              "Whether PSW is available and OK",
		"far_ok":              "Whether FAR status is OK",
		"imds_ok":             "Whether IMDS status is OK",
		"has_handling_manual": "Whether handling manual exists",
	},
	"status_clean": {
		"OEM":                "Original Equipment Manufacturer",
		"Project":            "Project name",
		"Total_Part_Numbers": "Total number of parts in project",
		"PSW_Available":      "Percentage of PSW available (0-1)",
		"Drawing_Available":  "Percentage of drawings available (0-1)",
	},
	"dim_dates": {
		"date":    "Date value",
		"role":    "Source column name for this date",
		"year":    "Year component",
		"month":   "Month component (1-12)",
		"quarter": "Quarter component (1-4)",
		"week":    "ISO week number",
	},
}

// ColumnDescription returns the curated description of column in tableName,
// or DefaultDescription.
func ColumnDescription(tableName, column string) string {
	if d, ok := columnDescriptions[tableName][column]; ok {
		return d
	}
	return DefaultDescription
}
