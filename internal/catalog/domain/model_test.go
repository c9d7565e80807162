package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

func TestProjectFromRow_MissingFieldsDefault(t *testing.T) {
	p := ProjectFromRow(table.Row{ColName: " A ", ColYear: "2023.0"})

	assert.Equal(t, "A", p.Name)
	assert.Equal(t, 2023, p.Year)
	assert.Equal(t, "", p.Period)
	assert.Equal(t, "", p.CategoryTags)
	assert.Equal(t, 0, p.Estimate)
}

func TestProjectRoundTrip(t *testing.T) {
	p := Project{
		Year: 2024, Period: "Verano", Name: "Archivo sonoro",
		CategoryTags: "Comunicación", Estimate: 3, CreatedAt: "2024-06-01 10:00:00",
	}
	assert.Equal(t, p, ProjectFromRow(p.Row()))
}

func TestDeliverables_KeepPositions(t *testing.T) {
	tbl := table.New(table.Deliverables, DeliverableColumns...)
	tbl.Append(Deliverable{Parent: "A", Title: "uno"}.Row())
	tbl.Append(Deliverable{Parent: "B", Title: "dos"}.Row())

	ds := Deliverables(tbl)
	assert.Len(t, ds, 2)
	assert.Equal(t, 1, ds[1].Position)
	assert.Equal(t, "B", ds[1].Parent)
	assert.Empty(t, Deliverables(nil))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 2023, ParseInt("2023"))
	assert.Equal(t, 2023, ParseInt(" 2023.0 "))
	assert.Equal(t, 0, ParseInt("2023.5"))
	assert.Equal(t, 0, ParseInt("nan"))
	assert.Equal(t, 0, ParseInt(""))
}

func TestMissingColumnError(t *testing.T) {
	var err error = MissingColumnError{Table: table.Projects, Column: ColPeriod}
	var mc MissingColumnError
	assert.True(t, errors.As(err, &mc))
	assert.Contains(t, err.Error(), "Periodo")
}
