package checks

import (
	"fmt"
	"strings"

	"rcconf-manager/core/database"
	"rcconf-manager/feature/overrides"

	"gorm.io/gorm"
)

// SchemaReport is the result of a database schema check.
type SchemaReport struct {
	Table          string   `json:"table"`
	Matched        bool     `json:"matched"`
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Errors         []string `json:"errors"`
}

// CheckDatabase verifies the override table against the GORM model.
func CheckDatabase(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&overrides.Override{}); err != nil {
		return nil, fmt.Errorf("failed to parse override model: %w", err)
	}

	report := &SchemaReport{
		Table:          stmt.Schema.Table,
		Matched:        true,
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Errors:         []string{},
	}

	cols, err := database.GetTableColumns(db, report.Table)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", report.Table, err))
		report.Matched = false
		return report, nil
	}
	if len(cols) == 0 {
		report.Errors = append(report.Errors, fmt.Sprintf("Table %s does not exist", report.Table))
		report.Matched = false
		return report, nil
	}

	actual := make(map[string]database.ColumnInfo, len(cols))
	for _, col := range cols {
		actual[col.Field] = col
	}

	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" {
			continue
		}
		col, ok := actual[field.DBName]
		if !ok {
			report.MissingColumns = append(report.MissingColumns, field.DBName)
			report.Matched = false
			continue
		}

		// Only columns with an explicit type tag are compared, loosely.
		expected := strings.ToLower(field.TagSettings["TYPE"])
		if expected != "" && !strings.Contains(strings.ToLower(col.Type), expected) {
			report.TypeMismatches = append(report.TypeMismatches,
				fmt.Sprintf("%s: expected %s, got %s", field.DBName, expected, col.Type))
			report.Matched = false
		}
	}

	return report, nil
}
