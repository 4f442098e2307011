package statement

import "github.com/seenimoa/fundalens/pkg/models"

// keyRows lists, per statement, the canonical line items a complete
// table carries. Each entry is a fallback chain; one hit counts.
var keyRows = map[models.Statement][][]Lookup{
	models.StatementProfitLoss: {
		TopLineChain,
		{rowExpenses},
		OperatingProfitChain,
		MarginChain,
		{rowOtherIncome},
		{rowInterest},
		{rowDepreciation},
		{rowPBT},
		{rowTaxPct},
		{rowNetProfit},
		{rowEPS},
	},
	models.StatementQuarterly: {
		TopLineChain,
		{rowExpenses},
		OperatingProfitChain,
		MarginChain,
		{rowNetProfit},
	},
	models.StatementBalanceSheet: {
		{Like("Equity Capital")},
		{Like("Reserves")},
		{Like("Borrowings")},
		{Like("Total Liabilities")},
		{Like("Fixed Assets")},
		{Like("Investments")},
		{Like("Total Assets")},
	},
	models.StatementCashFlow: {
		{Like("Operating Activity")},
		{Like("Investing Activity")},
		{Like("Financing Activity")},
		{Like("Net Cash Flow")},
	},
	models.StatementRatios: {
		{Like("ROCE"), Like("ROE")},
	},
	models.StatementShareholding: {
		{Like("Promoter")},
		{Like("FII")},
		{Like("DII")},
		{Like("Public")},
	},
}

// Statements is the order completeness is reported in.
var Statements = []models.Statement{
	models.StatementProfitLoss,
	models.StatementQuarterly,
	models.StatementBalanceSheet,
	models.StatementCashFlow,
	models.StatementRatios,
	models.StatementShareholding,
}

// Completeness counts how many of a statement's key rows resolve to a
// series with data.
func Completeness(st models.Statement, section *models.TableSection) models.DataCompleteness {
	chains := keyRows[st]
	dc := models.DataCompleteness{Statement: st, RowsExpected: len(chains)}
	if section.IsEmpty() {
		return dc
	}
	dc.Periods = len(section.Periods)
	for _, chain := range chains {
		if _, _, ok := ResolveFirst(section, 0, chain...); ok {
			dc.RowsFound++
		}
	}
	if dc.RowsExpected > 0 {
		dc.Ratio = float64(dc.RowsFound) / float64(dc.RowsExpected)
	}
	return dc
}
