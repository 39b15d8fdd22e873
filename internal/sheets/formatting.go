package sheets

import "google.golang.org/api/sheets/v4"

// Summary rows holding currency values.
const (
	summaryPriceRow   = 5
	summaryEarnestRow = 6
)

// formatTab returns the formatting requests for one tab.
func formatTab(tab string, sheetID int64) []*sheets.Request {
	if tab == TabSummary {
		return []*sheets.Request{
			boldRows(sheetID, 0, 1, 16),
			boldColumn(sheetID, 2, 11),
			currencyCells(sheetID, summaryPriceRow, summaryEarnestRow+1, 1),
			autoResize(sheetID, 2),
		}
	}

	columns := int64(len(tabValues(tab, TabData{})[0]))
	return []*sheets.Request{
		headerRow(sheetID),
		freezeHeader(sheetID),
		autoResize(sheetID, columns),
	}
}

func boldRows(sheetID, start, end, size int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:       sheetID,
				StartRowIndex: start,
				EndRowIndex:   end,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{
						Bold:     true,
						FontSize: size,
					},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func boldColumn(sheetID, start, end int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    start,
				EndRowIndex:      end,
				StartColumnIndex: 0,
				EndColumnIndex:   1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{
						Bold: true,
					},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func currencyCells(sheetID, start, end, column int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    start,
				EndRowIndex:      end,
				StartColumnIndex: column,
				EndColumnIndex:   column + 1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{
						Type:    "CURRENCY",
						Pattern: "$#,##0.00",
					},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

// headerRow bolds and shades the first row.
func headerRow(sheetID int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:       sheetID,
				StartRowIndex: 0,
				EndRowIndex:   1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{
						Bold: true,
					},
					BackgroundColor: &sheets.Color{
						Red:   0.9,
						Green: 0.9,
						Blue:  0.9,
						Alpha: 1.0,
					},
				},
			},
			Fields: "userEnteredFormat.textFormat,userEnteredFormat.backgroundColor",
		},
	}
}

func freezeHeader(sheetID int64) *sheets.Request {
	return &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId: sheetID,
				GridProperties: &sheets.GridProperties{
					FrozenRowCount: 1,
				},
			},
			Fields: "gridProperties.frozenRowCount",
		},
	}
}

func autoResize(sheetID, columns int64) *sheets.Request {
	return &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   columns,
			},
		},
	}
}
