package export

import (
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-oee/internal/config"
	"github.com/bitfantasy/nimo-oee/internal/service"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func setupRun(t *testing.T) *service.AnalysisRun {
	t.Helper()
	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			Records:     300,
			HorizonDays: 60,
			StartDate:   "2025-07-01",
		},
		Improvement: config.ImprovementConfig{
			DowntimeFactor:  0.65,
			CycleTimeFactor: 0.85,
			DefectFactor:    0.5,
		},
		Finance: config.FinanceConfig{UnitPrice: 0.5, Investment: 750000},
	}
	svc := service.NewAnalysisService(cfg, zap.NewNop())
	run, err := svc.Run(service.RunRequest{Seed: 42})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return run
}

// TestBuildWorkbookSheets verifies one sheet per logical table
func TestBuildWorkbookSheets(t *testing.T) {
	run := setupRun(t)

	f, filename, err := BuildWorkbook(run)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("Filename %q missing .xlsx suffix", filename)
	}
	if !strings.Contains(filename, run.Summary.RunCode) {
		t.Errorf("Filename %q missing run code %q", filename, run.Summary.RunCode)
	}

	want := []string{
		"Raw_Production_Data", "OEE_Calculated_Data", "Machine_Analysis",
		"Shift_Analysis", "Monthly_Trends", "Downtime_Summary",
		"Speed_Loss_Analysis", "Worst_Speed_Records", "Quality_Analysis",
		"Shift_Quality", "Summary_Statistics", "Top_Performers",
	}
	sheets := f.GetSheetList()
	have := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		have[s] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("Missing sheet %q (got %v)", w, sheets)
		}
	}

	// header row of the OEE sheet carries the exact column names
	cell, err := f.GetCellValue("OEE_Calculated_Data", "O1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if cell != "OEE" {
		t.Errorf("OEE header cell: got %q, want OEE", cell)
	}

	rows, err := f.GetRows("OEE_Calculated_Data")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != len(run.Records)+1 {
		t.Errorf("OEE sheet rows: got %d, want %d (header + records)", len(rows), len(run.Records)+1)
	}
}

// TestTopPerformersSheet checks the leaderboard rows against a manual scan of the batch
func TestTopPerformersSheet(t *testing.T) {
	run := setupRun(t)

	f, _, err := BuildWorkbook(run)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Top_Performers")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	wantCategories := []string{
		"Best OEE Performance", "Worst OEE Performance", "Best Availability",
		"Best Performance", "Best Quality", "Highest Production",
		"Lowest Downtime", "Best Shift Performance",
	}
	if len(rows) != len(wantCategories)+1 {
		t.Fatalf("Rows: got %d, want header + %d categories", len(rows), len(wantCategories))
	}
	for i, want := range wantCategories {
		if rows[i+1][0] != want {
			t.Errorf("Category row %d: got %q, want %q", i+1, rows[i+1][0], want)
		}
	}

	// ties resolve to the first occurrence, so a linear scan reproduces the sheet
	best := run.Records[0]
	for _, r := range run.Records[1:] {
		if r.OEE > best.OEE {
			best = r
		}
	}
	if rows[1][1] != string(best.Machine) {
		t.Errorf("Best OEE machine: got %q, want %q", rows[1][1], best.Machine)
	}
	if rows[1][3] != best.Date.Format("2006-01-02") {
		t.Errorf("Best OEE date: got %q, want %q", rows[1][3], best.Date.Format("2006-01-02"))
	}
	if rows[8][3] != "Overall" {
		t.Errorf("Shift row date: got %q, want Overall", rows[8][3])
	}
}

// TestOeeTableTSV verifies the GBK round trip and table shape
func TestOeeTableTSV(t *testing.T) {
	run := setupRun(t)

	data, err := OeeTableTSV(run.Records)
	if err != nil {
		t.Fatalf("OeeTableTSV failed: %v", err)
	}

	// GBK → UTF-8
	decoded, _, err := transform.String(simplifiedchinese.GBK.NewDecoder(), string(data))
	if err != nil {
		t.Fatalf("GBK decode failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(decoded, "\r\n"), "\r\n")
	if len(lines) != len(run.Records)+1 {
		t.Fatalf("TSV lines: got %d, want %d", len(lines), len(run.Records)+1)
	}
	header := strings.Split(lines[0], "\t")
	if len(header) != len(oeeHeaders) {
		t.Errorf("Header columns: got %d, want %d", len(header), len(oeeHeaders))
	}
	if header[0] != "Date" || header[len(header)-1] != "OEE" {
		t.Errorf("Unexpected header: %v", header)
	}
	for i, line := range lines[1:] {
		if got := len(strings.Split(line, "\t")); got != len(oeeHeaders) {
			t.Fatalf("Row %d columns: got %d, want %d", i+1, got, len(oeeHeaders))
		}
	}
}
