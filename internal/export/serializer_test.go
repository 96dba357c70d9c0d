package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"iter"
	"testing"
	"time"

	"campaignexport/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecord() domain.GeneratedRecord {
	start := time.Date(2025, time.June, 25, 14, 30, 0, 0, time.UTC)
	stop := start.AddDate(0, 0, 7)
	return domain.GeneratedRecord{
		LocationID:   "chi",
		VariantID:    "v1",
		AdStatus:     "ACTIVE",
		Objective:    "Engagement",
		BidStrategy:  "Highest volume or value",
		CampaignName: "EWC_Meta_June25_Chicago",
		AdSetName:    "EWC_Meta_June25_Chicago_June",
		AdName:       "EWC_Meta_June25_Chicago_June",
		Targeting:    "(41.714, -87.653) +8mi; (41.900, -87.700) +1mi",
		LandingPage:  "https://www.waxcenter.com/locations/chicago",
		Budget:       decimal.RequireFromString("25.50"),
		StartTime:    &start,
		StopTime:     &stop,
		Template:     domain.DefaultReferenceTemplate(),
	}
}

func records(recs ...domain.GeneratedRecord) iter.Seq2[int, domain.GeneratedRecord] {
	return func(yield func(int, domain.GeneratedRecord) bool) {
		for i, r := range recs {
			if !yield(i, r) {
				return
			}
		}
	}
}

func parse(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestColumns(t *testing.T) {
	headers := Columns()
	require.Len(t, headers, 79)
	assert.Equal(t, "Campaign ID", headers[0])
	assert.Equal(t, "Brand Safety Inventory Filtering Levels", headers[78])

	seen := make(map[string]bool)
	for _, h := range headers {
		assert.False(t, seen[h], "duplicate header %q", h)
		seen[h] = true
	}

	assert.Equal(t, 2, ColumnIndex("Campaign Name"))
	assert.Equal(t, -1, ColumnIndex("Nope"))
}

func TestRenderCSV(t *testing.T) {
	data, err := RenderCSV(records(sampleRecord(), sampleRecord()))
	require.NoError(t, err)

	rows := parse(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns(), rows[0])

	row := rows[1]
	assert.Equal(t, "EWC_Meta_June25_Chicago", row[ColumnIndex("Campaign Name")])
	assert.Equal(t, "25.5", row[ColumnIndex("Campaign Daily Budget")])
	assert.Equal(t, "06/25/2025 02:30:00 pm", row[ColumnIndex("Campaign Start Time")])
	assert.Equal(t, "07/02/2025 02:30:00 pm", row[ColumnIndex("Ad Set Time Stop")])
	assert.Equal(t, "(41.714, -87.653) +8mi; (41.900, -87.700) +1mi", row[ColumnIndex("Addresses")])
	assert.Equal(t, "https://www.waxcenter.com/locations/chicago", row[ColumnIndex("Link")])
	assert.Equal(t, "18", row[ColumnIndex("Age Min")])
	assert.Empty(t, row[ColumnIndex("Campaign ID")])
	assert.Empty(t, row[ColumnIndex("Gender")])

	// commas and quotes survive a CSV round trip
	assert.Equal(t, domain.DefaultReferenceTemplate().Body, row[ColumnIndex("Body")])
	assert.Contains(t, string(data), `""no strings attached""`)
}

func TestJSONColumnsRoundTrip(t *testing.T) {
	rec := sampleRecord()
	row, err := Row(&rec)
	require.NoError(t, err)

	var groups []domain.InterestGroup
	require.NoError(t, json.Unmarshal([]byte(row[ColumnIndex("Flexible Inclusions")]), &groups))
	assert.Equal(t, rec.Template.FlexibleInclusions, groups)

	var windows []domain.AttributionWindow
	require.NoError(t, json.Unmarshal([]byte(row[ColumnIndex("Attribution Spec")]), &windows))
	assert.Equal(t, rec.Template.AttributionSpec, windows)

	rec.Template.FlexibleInclusions = nil
	rec.Template.AttributionSpec = []domain.AttributionWindow{}
	row, err = Row(&rec)
	require.NoError(t, err)
	assert.Empty(t, row[ColumnIndex("Flexible Inclusions")])
	assert.Empty(t, row[ColumnIndex("Attribution Spec")])
}

func TestJSONCellDoesNotEscapeHTML(t *testing.T) {
	cell, err := JSONCell(map[string]string{"url": "https://x.test/?a=1&b=<2>"})
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://x.test/?a=1&b=<2>"}`, cell)
}

func TestFormatTime(t *testing.T) {
	assert.Empty(t, FormatTime(nil))
	assert.Empty(t, FormatTime(&time.Time{}))

	chicago := time.FixedZone("CDT", -5*3600)
	local := time.Date(2025, time.June, 25, 23, 15, 5, 0, chicago)
	assert.Equal(t, "06/26/2025 04:15:05 am", FormatTime(&local))
}

func TestMissingTimesRenderEmpty(t *testing.T) {
	rec := sampleRecord()
	rec.StartTime, rec.StopTime = nil, nil
	rec.Budget = decimal.Zero

	row, err := Row(&rec)
	require.NoError(t, err)
	assert.Empty(t, row[ColumnIndex("Campaign Start Time")])
	assert.Empty(t, row[ColumnIndex("Campaign Stop Time")])
	assert.Equal(t, "0", row[ColumnIndex("Campaign Daily Budget")])
}

func TestRenderCSVEmptySequence(t *testing.T) {
	data, err := RenderCSV(records())
	require.NoError(t, err)

	rows := parse(t, data)
	require.Len(t, rows, 1)
	assert.Equal(t, Columns(), rows[0])
}

func TestRenderCSVIsDeterministic(t *testing.T) {
	a, err := RenderCSV(records(sampleRecord()))
	require.NoError(t, err)
	b, err := RenderCSV(records(sampleRecord()))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriterCountsRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	rec := sampleRecord()

	require.NoError(t, w.Write(&rec))
	require.NoError(t, w.Write(&rec))
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, w.Rows())
	assert.Len(t, parse(t, buf.Bytes()), 3, "header is written once")
}

func TestRenderXLSX(t *testing.T) {
	data, err := RenderCSV(records(sampleRecord()))
	require.NoError(t, err)

	book, err := RenderXLSX(data)
	require.NoError(t, err)

	xl, err := excelize.OpenReader(bytes.NewReader(book))
	require.NoError(t, err)
	defer xl.Close()

	assert.Equal(t, []string{SheetName}, xl.GetSheetList())

	rows, err := xl.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Columns(), rows[0])

	bodyCell, err := excelize.CoordinatesToCellName(ColumnIndex("Body")+1, 2)
	require.NoError(t, err)
	body, err := xl.GetCellValue(SheetName, bodyCell)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultReferenceTemplate().Body, body)

	budget, err := xl.GetCellValue(SheetName, "J2") // Campaign Daily Budget
	require.NoError(t, err)
	assert.Equal(t, "25.5", budget)
}

func TestRenderXLSXRejectsMalformedCSV(t *testing.T) {
	_, err := RenderXLSX([]byte("a,b\n1,2\n"))
	assert.Error(t, err)
}
