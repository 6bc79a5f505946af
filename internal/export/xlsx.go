// Package export writes dashboard data to spreadsheet files for analysts
// who live outside the dashboard.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrichment-api/internal/model"
)

var factHeader = []string{
	"ID", "Job ID", "Fact Type", "Data", "Confidence", "Tier",
	"Validation", "Approval", "Source URL", "Reviewed At", "Created At",
}

// WriteFactsXLSX writes facts to an XLSX workbook at path, one row per fact
// with a header row. Fact data is serialized as compact JSON.
func WriteFactsXLSX(path string, facts []model.Fact) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Facts")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range factHeader {
		header.AddCell().SetString(col)
	}

	for i := range facts {
		if err := writeFactRow(sheet, &facts[i]); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeFactRow(sheet *xlsx.Sheet, fact *model.Fact) error {
	data, err := json.Marshal(fact.FactData)
	if err != nil {
		return eris.Wrapf(err, "export: marshal fact %s", fact.ID)
	}

	reviewed := ""
	if fact.ReviewedAt != nil {
		reviewed = fact.ReviewedAt.UTC().Format(time.RFC3339)
	}

	row := sheet.AddRow()
	row.AddCell().SetString(fact.ID)
	row.AddCell().SetString(fact.JobID)
	row.AddCell().SetString(fact.FactType)
	row.AddCell().SetString(string(data))
	row.AddCell().SetString(fmt.Sprintf("%.3f", fact.Confidence))
	row.AddCell().SetString(fmt.Sprintf("%d", fact.Tier))
	row.AddCell().SetString(string(fact.ValidationStatus))
	row.AddCell().SetString(string(fact.ApprovalStatus))
	row.AddCell().SetString(fact.SourceURL)
	row.AddCell().SetString(reviewed)
	row.AddCell().SetString(fact.CreatedAt.UTC().Format(time.RFC3339))
	return nil
}
