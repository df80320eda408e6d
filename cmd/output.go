// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/xuri/excelize/v2"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/data"
	"github.com/regime-vault/rv-api/optimize"
)

func printMetricsTable(result *backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(result.Name)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Metric", "Portfolio", result.BenchmarkTicker})
	t.AppendRows([]table.Row{
		{"Final Value", fmt.Sprintf("%.0f", result.Metrics.FinalValue), fmt.Sprintf("%.0f", result.Benchmark.FinalValue)},
		{"Total Return", fmt.Sprintf("%.2f%%", result.Metrics.TotalReturnPct), fmt.Sprintf("%.2f%%", result.Benchmark.TotalReturnPct)},
		{"Annualized Return", fmt.Sprintf("%.2f%%", result.Metrics.AnnualizedReturnPct), fmt.Sprintf("%.2f%%", result.Benchmark.AnnualizedReturnPct)},
		{"Volatility", fmt.Sprintf("%.2f%%", result.Metrics.VolatilityPct), fmt.Sprintf("%.2f%%", result.Benchmark.VolatilityPct)},
		{"Sharpe Ratio", fmt.Sprintf("%.4f", result.Metrics.SharpeRatio), fmt.Sprintf("%.4f", result.Benchmark.SharpeRatio)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", result.Metrics.MaxDrawdownPct), fmt.Sprintf("%.2f%%", result.Benchmark.MaxDrawdownPct)},
		{"Drawdown Window", result.Metrics.MaxDrawdownStart + " ~ " + result.Metrics.MaxDrawdownEnd, ""},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

func printOptimizeTable(result *optimize.Result) {
	regimes := make([]string, 0, len(result.RegimesUsed))
	for _, r := range result.RegimesUsed {
		regimes = append(regimes, string(r))
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("OPTIMIZATION RESULT")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Target", string(result.Target)},
		{"Iterations", result.Iterations},
		{"Regimes Searched", strings.Join(regimes, ", ")},
		{"Annualized Return", fmt.Sprintf("%.2f%%", result.Metrics.AnnualizedReturnPct)},
		{"Volatility", fmt.Sprintf("%.2f%%", result.Metrics.VolatilityPct)},
		{"Sharpe Ratio", fmt.Sprintf("%.4f", result.Metrics.SharpeRatio)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", result.Metrics.MaxDrawdownPct)},
	})

	t.Render()
	fmt.Println()
}

func printAllocationsTable(allocs allocation.RegimeAllocations) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ALLOCATIONS BY REGIME")
	t.SetStyle(table.StyleRounded)

	header := table.Row{"Regime"}
	for _, class := range allocation.AssetClasses {
		header = append(header, string(class))
	}
	t.AppendHeader(header)

	for _, regime := range data.RegimeLabels {
		weights, ok := allocs[regime]
		if !ok {
			continue
		}
		row := table.Row{string(regime)}
		for _, class := range allocation.AssetClasses {
			row = append(row, fmt.Sprintf("%.1f", weights[class]))
		}
		t.AppendRow(row)
	}

	t.Render()
	fmt.Println()
}

// writeResultXlsx produces a two sheet workbook: run summary and the full
// daily equity curve.
func writeResultXlsx(result *backtest.Result, path string) error {
	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const curveSheet = "Equity Curve"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(curveSheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Name", result.Name},
		{"Start Date", result.StartDate},
		{"End Date", result.EndDate},
		{"Initial Capital", result.InitialCapital},
		{"Risk Level", result.RiskLevel},
		{"Rebalance", string(result.Rebalance)},
		{"Benchmark", result.BenchmarkTicker},
		{"Final Value", result.Metrics.FinalValue},
		{"Total Return %", result.Metrics.TotalReturnPct},
		{"Annualized Return %", result.Metrics.AnnualizedReturnPct},
		{"Volatility %", result.Metrics.VolatilityPct},
		{"Sharpe Ratio", result.Metrics.SharpeRatio},
		{"Max Drawdown %", result.Metrics.MaxDrawdownPct},
	}
	for idx, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	header := []interface{}{"Date", "Portfolio Value", "Benchmark Value", "Regime", "Drawdown %"}
	if err := fx.SetSheetRow(curveSheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(curveSheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for idx, point := range result.Curve {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}
		row := []interface{}{point.Date, point.PortfolioValue, point.BenchmarkValue, string(point.Regime), point.DrawdownPct}
		if err := fx.SetSheetRow(curveSheet, cell, &row); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}
