// Package export 把一次分析运行的全部结果表导出为协作方消费的格式：
// 多Sheet的xlsx工作簿，以及面向Windows Excel的GBK编码TSV。
package export

import (
	"fmt"

	"github.com/bitfantasy/nimo-oee/internal/model/entity"
	"github.com/bitfantasy/nimo-oee/internal/service"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02"

var rawHeaders = []string{
	"Date", "Shift", "Machine_Name", "Planned_Production_Time", "Downtime_Minutes",
	"Downtime_Reason", "Ideal_Cycle_Time", "Actual_Cycle_Time",
	"Total_Units_Produced", "Defective_Units", "Good_Units",
}

var oeeHeaders = append(append([]string{}, rawHeaders...),
	"Availability", "Performance", "Quality", "OEE")

var aggregateHeaders = []string{
	"Key", "Records", "OEE_Mean", "OEE_Std", "OEE_Min", "OEE_Max",
	"Availability_Mean", "Performance_Mean", "Quality_Mean",
	"Total_Units", "Defective_Units", "Avg_Downtime",
}

// BuildWorkbook 构建完整分析工作簿，每张逻辑表一个Sheet
func BuildWorkbook(run *service.AnalysisRun) (*excelize.File, string, error) {
	f := excelize.NewFile()

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	writeRawSheet(f, "Raw_Production_Data", run.Records, boldStyle)
	writeOeeSheet(f, "OEE_Calculated_Data", run.Records, boldStyle)
	writeAggregateSheet(f, "Machine_Analysis", run.Aggregates[entity.DimensionMachine], boldStyle)
	writeAggregateSheet(f, "Shift_Analysis", run.Aggregates[entity.DimensionShift], boldStyle)
	writeAggregateSheet(f, "Monthly_Trends", run.Aggregates[entity.DimensionMonth], boldStyle)
	writeParetoSheet(f, "Downtime_Summary", run.Losses.DowntimePareto, boldStyle)
	writeSpeedLossSheet(f, "Speed_Loss_Analysis", run.Losses.SpeedLoss, boldStyle)
	writeWorstSpeedSheet(f, "Worst_Speed_Records", run.Losses.WorstSpeed, boldStyle)
	writeQualitySheet(f, "Quality_Analysis", run.Losses.QualityLoss, boldStyle)
	writeShiftQualitySheet(f, "Shift_Quality", run.Losses.ShiftQuality, boldStyle)
	if err := writeSummarySheet(f, "Summary_Statistics", run, boldStyle); err != nil {
		return nil, "", err
	}
	writeTopPerformersSheet(f, "Top_Performers", run, boldStyle)

	// 删除默认Sheet，首页定位到汇总页
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex("Summary_Statistics"); err == nil {
		f.SetActiveSheet(idx)
	}

	filename := fmt.Sprintf("OEE_Analysis_%s.xlsx", run.Summary.RunCode)
	return f, filename, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	f.NewSheet(sheet)
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func writeRawSheet(f *excelize.File, sheet string, records []entity.OeeRecord, style int) {
	writeHeaders(f, sheet, rawHeaders, style)
	for i, r := range records {
		row := i + 2
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{
			r.Date.Format(dateLayout), string(r.Shift), string(r.Machine),
			r.PlannedProductionTime, r.DowntimeMinutes, string(r.DowntimeReason),
			r.IdealCycleTime, r.ActualCycleTime,
			r.TotalUnitsProduced, r.DefectiveUnits, r.GoodUnits,
		})
	}
}

func writeOeeSheet(f *excelize.File, sheet string, records []entity.OeeRecord, style int) {
	writeHeaders(f, sheet, oeeHeaders, style)
	for i, r := range records {
		row := i + 2
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{
			r.Date.Format(dateLayout), string(r.Shift), string(r.Machine),
			r.PlannedProductionTime, r.DowntimeMinutes, string(r.DowntimeReason),
			r.IdealCycleTime, r.ActualCycleTime,
			r.TotalUnitsProduced, r.DefectiveUnits, r.GoodUnits,
			r.Availability, r.Performance, r.Quality, r.OEE,
		})
	}
}

func writeAggregateSheet(f *excelize.File, sheet string, rows []entity.AggregateRow, style int) {
	writeHeaders(f, sheet, aggregateHeaders, style)
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			r.Key, r.Records, r.OEEMean, r.OEEStd, r.OEEMin, r.OEEMax,
			r.AvailabilityMean, r.PerformanceMean, r.QualityMean,
			r.TotalUnits, r.DefectiveUnits, r.DowntimeMean,
		})
	}
}

func writeParetoSheet(f *excelize.File, sheet string, rows []entity.ParetoRow, style int) {
	writeHeaders(f, sheet, []string{
		"Downtime_Reason", "Total_Downtime_Min", "Avg_Downtime_Min", "Frequency", "Cumulative_Pct",
	}, style)
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			string(r.Reason), r.TotalMinutes, r.MeanMinutes, r.Frequency, r.CumulativePct,
		})
	}
}

func writeSpeedLossSheet(f *excelize.File, sheet string, rows []entity.SpeedLossRow, style int) {
	writeHeaders(f, sheet, []string{
		"Machine_Name", "Records", "Avg_Speed_Loss_Pct", "Std_Speed_Loss", "Max_Speed_Loss",
		"Avg_Ideal_Cycle", "Avg_Actual_Cycle", "Total_Units",
	}, style)
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			string(r.Machine), r.Records, r.MeanLossPct, r.StdLossPct, r.MaxLossPct,
			r.MeanIdealCycle, r.MeanActualCycle, r.TotalUnits,
		})
	}
}

func writeWorstSpeedSheet(f *excelize.File, sheet string, rows []entity.SpeedLossRecord, style int) {
	writeHeaders(f, sheet, []string{"Date", "Machine_Name", "Shift", "Speed_Loss_Pct"}, style)
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			r.Date.Format(dateLayout), string(r.Machine), string(r.Shift), r.SpeedLossPct,
		})
	}
}

func writeQualitySheet(f *excelize.File, sheet string, rows []entity.QualityLossRow, style int) {
	writeHeaders(f, sheet, []string{
		"Machine_Name", "Records", "Avg_Defect_Rate", "Std_Defect_Rate", "Max_Defect_Rate",
		"Avg_Quality", "Min_Quality", "Total_Defects", "Total_Units",
	}, style)
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			string(r.Machine), r.Records, r.MeanDefectRate, r.StdDefectRate, r.MaxDefectRate,
			r.MeanQuality, r.MinQuality, r.TotalDefects, r.TotalUnits,
		})
	}
}

func writeShiftQualitySheet(f *excelize.File, sheet string, rows []entity.ShiftQualityRow, style int) {
	writeHeaders(f, sheet, []string{"Shift", "Records", "Avg_Defect_Rate", "Avg_Quality"}, style)
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			string(r.Shift), r.Records, r.MeanDefectRate, r.MeanQuality,
		})
	}
}

// writeSummarySheet 汇总页：关键标量 + 设备OEE柱状图。标量全部取自运行摘要，
// 不在这里重算，避免与其他报表出现口径差异。
func writeSummarySheet(f *excelize.File, sheet string, run *service.AnalysisRun, style int) error {
	writeHeaders(f, sheet, []string{"Metric", "Value"}, style)

	s := run.Summary
	metrics := [][]interface{}{
		{"Run_Code", s.RunCode},
		{"Seed", s.Seed},
		{"Start_Date", s.StartDate.Format(dateLayout)},
		{"Horizon_Days", s.HorizonDays},
		{"Total_Records", s.Records},
		{"Total_Units_Produced", s.TotalUnits},
		{"Total_Defective_Units", s.TotalDefects},
		{"Average_OEE_Pct", s.Means.OEE},
		{"Average_Availability_Pct", s.Means.Availability},
		{"Average_Performance_Pct", s.Means.Performance},
		{"Average_Quality_Pct", s.Means.Quality},
		{"Weekend_Skipped", s.Tally.WeekendSkipped},
		{"Rejected_Records", s.Tally.Rejected},
		{"Degenerate_Records", s.Tally.Degenerate},
	}
	for i, m := range metrics {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &m)
	}
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 20)

	// 设备OEE均值柱状图，数据引用Machine_Analysis页
	machineRows := run.Aggregates[entity.DimensionMachine]
	if len(machineRows) == 0 {
		return nil
	}
	dataRange := fmt.Sprintf("Machine_Analysis!$C$2:$C$%d", len(machineRows)+1)
	catRange := fmt.Sprintf("Machine_Analysis!$A$2:$A$%d", len(machineRows)+1)
	if err := f.AddChart(sheet, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{
			{
				Name:       "OEE Mean (%)",
				Categories: catRange,
				Values:     dataRange,
			},
		},
		Title: []excelize.RichTextRun{{Text: "OEE by Machine"}},
	}); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}

// writeTopPerformersSheet 最佳/最差表现榜单：各指标的极值记录及其设备和日期。
// 同值取首次出现的记录，保证同一批次导出结果稳定。
func writeTopPerformersSheet(f *excelize.File, sheet string, run *service.AnalysisRun, style int) {
	writeHeaders(f, sheet, []string{"Category", "Machine/Shift", "Value", "Date"}, style)

	records := run.Records
	if len(records) == 0 {
		return
	}

	pick := func(metric func(entity.OeeRecord) float64, max bool) entity.OeeRecord {
		best := 0
		for i := 1; i < len(records); i++ {
			v, cur := metric(records[i]), metric(records[best])
			if (max && v > cur) || (!max && v < cur) {
				best = i
			}
		}
		return records[best]
	}

	bestOee := pick(func(r entity.OeeRecord) float64 { return r.OEE }, true)
	worstOee := pick(func(r entity.OeeRecord) float64 { return r.OEE }, false)
	bestAvail := pick(func(r entity.OeeRecord) float64 { return r.Availability }, true)
	bestPerf := pick(func(r entity.OeeRecord) float64 { return r.Performance }, true)
	bestQual := pick(func(r entity.OeeRecord) float64 { return r.Quality }, true)
	topUnits := pick(func(r entity.OeeRecord) float64 { return float64(r.TotalUnitsProduced) }, true)
	lowDowntime := pick(func(r entity.OeeRecord) float64 { return r.DowntimeMinutes }, false)

	var bestShift entity.AggregateRow
	if shiftRows := run.Aggregates[entity.DimensionShift]; len(shiftRows) > 0 {
		bestShift = shiftRows[0]
		for _, row := range shiftRows[1:] {
			if row.OEEMean > bestShift.OEEMean {
				bestShift = row
			}
		}
	}

	en := message.NewPrinter(language.English)
	rows := [][]interface{}{
		{"Best OEE Performance", string(bestOee.Machine), fmt.Sprintf("%.2f%%", bestOee.OEE), bestOee.Date.Format(dateLayout)},
		{"Worst OEE Performance", string(worstOee.Machine), fmt.Sprintf("%.2f%%", worstOee.OEE), worstOee.Date.Format(dateLayout)},
		{"Best Availability", string(bestAvail.Machine), fmt.Sprintf("%.2f%%", bestAvail.Availability), bestAvail.Date.Format(dateLayout)},
		{"Best Performance", string(bestPerf.Machine), fmt.Sprintf("%.2f%%", bestPerf.Performance), bestPerf.Date.Format(dateLayout)},
		{"Best Quality", string(bestQual.Machine), fmt.Sprintf("%.2f%%", bestQual.Quality), bestQual.Date.Format(dateLayout)},
		{"Highest Production", string(topUnits.Machine), en.Sprintf("%d", topUnits.TotalUnitsProduced), topUnits.Date.Format(dateLayout)},
		{"Lowest Downtime", string(lowDowntime.Machine), fmt.Sprintf("%.1f min", lowDowntime.DowntimeMinutes), lowDowntime.Date.Format(dateLayout)},
		{"Best Shift Performance", bestShift.Key, fmt.Sprintf("%.2f%%", bestShift.OEEMean), "Overall"},
	}
	for i, r := range rows {
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &r)
	}
	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "D", 16)
}
