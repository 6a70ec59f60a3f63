package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-oee/internal/model/entity"
)

func oeeRecord(machine entity.Machine, shift entity.Shift, date time.Time, units, defects int, oeeVal float64) entity.OeeRecord {
	return entity.OeeRecord{
		ProductionRecord: entity.ProductionRecord{
			Date:                  date,
			Shift:                 shift,
			Machine:               machine,
			PlannedProductionTime: 480,
			DowntimeMinutes:       30,
			DowntimeReason:        entity.ReasonCleaning,
			IdealCycleTime:        2.5,
			ActualCycleTime:       3.0,
			TotalUnitsProduced:    units,
			DefectiveUnits:        defects,
			GoodUnits:             units - defects,
		},
		Availability: 93.75,
		Performance:  83.33,
		Quality:      95,
		OEE:          oeeVal,
	}
}

// TestAggregateByMachinePartition verifies group sums partition the batch grand total
func TestAggregateByMachinePartition(t *testing.T) {
	agg := NewAggregator()
	date := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	records := []entity.OeeRecord{
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, date, 500, 10, 70),
		oeeRecord(entity.MachineMixer, entity.ShiftNight, date, 450, 5, 65),
		oeeRecord(entity.MachineFiller, entity.ShiftMorning, date, 9000, 200, 60),
		oeeRecord(entity.MachinePacker, entity.ShiftAfternoon, date, 8000, 100, 75),
	}

	rows, err := agg.Aggregate(records, entity.DimensionMachine)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	var grandTotal, groupSum int
	for _, r := range records {
		grandTotal += r.TotalUnitsProduced
	}
	for _, row := range rows {
		groupSum += row.TotalUnits
	}
	if groupSum != grandTotal {
		t.Errorf("Group sums %d != grand total %d", groupSum, grandTotal)
	}
}

// TestAggregateEmptyGroups verifies every enum value gets an explicit row, never omitted
func TestAggregateEmptyGroups(t *testing.T) {
	agg := NewAggregator()
	date := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	records := []entity.OeeRecord{
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, date, 500, 10, 70),
	}

	rows, err := agg.Aggregate(records, entity.DimensionMachine)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(rows) != len(entity.Machines) {
		t.Fatalf("Got %d rows, want %d (one per machine)", len(rows), len(entity.Machines))
	}

	// rows follow enum declaration order, empty groups carry zero counts
	for i, m := range entity.Machines {
		if rows[i].Key != string(m) {
			t.Errorf("Row %d key %q, want %q", i, rows[i].Key, m)
		}
		if m == entity.MachineMixer {
			if rows[i].Records != 1 {
				t.Errorf("Mixer records: got %d, want 1", rows[i].Records)
			}
		} else if rows[i].Records != 0 {
			t.Errorf("%s should be an explicit empty row, got %d records", m, rows[i].Records)
		}
	}
}

// TestAggregateByMonth verifies chronological ordering and the shared month key
func TestAggregateByMonth(t *testing.T) {
	agg := NewAggregator()

	records := []entity.OeeRecord{
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC), 100, 1, 70),
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), 100, 1, 60),
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), 100, 1, 62),
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 100, 1, 71),
	}

	rows, err := agg.Aggregate(records, entity.DimensionMonth)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	wantKeys := []string{"2025-07", "2025-09", "2025-12"}
	if len(rows) != len(wantKeys) {
		t.Fatalf("Got %d month rows, want %d", len(rows), len(wantKeys))
	}
	for i, key := range wantKeys {
		if rows[i].Key != key {
			t.Errorf("Row %d key %q, want %q", i, rows[i].Key, key)
		}
	}
	if rows[0].Records != 2 {
		t.Errorf("2025-07 records: got %d, want 2", rows[0].Records)
	}

	// the key must match what entity.MonthKey yields for the same date
	if got := entity.MonthKey(records[0].Date); got != "2025-09" {
		t.Errorf("MonthKey: got %q, want 2025-09", got)
	}
}

// TestAggregateStats verifies the summary statistics for a known group
func TestAggregateStats(t *testing.T) {
	agg := NewAggregator()
	date := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	records := []entity.OeeRecord{
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, date, 100, 10, 60),
		oeeRecord(entity.MachineMixer, entity.ShiftMorning, date, 200, 20, 80),
	}

	rows, err := agg.Aggregate(records, entity.DimensionMachine)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	mixer := rows[0]

	if mixer.OEEMean != 70 {
		t.Errorf("OEE mean: got %v, want 70", mixer.OEEMean)
	}
	if mixer.OEEMin != 60 || mixer.OEEMax != 80 {
		t.Errorf("OEE min/max: got %v/%v, want 60/80", mixer.OEEMin, mixer.OEEMax)
	}
	// sample stddev of {60, 80} is sqrt(200) ≈ 14.142
	if mixer.OEEStd < 14.14 || mixer.OEEStd > 14.15 {
		t.Errorf("OEE std: got %v, want ~14.142", mixer.OEEStd)
	}
	if mixer.TotalUnits != 300 || mixer.DefectiveUnits != 30 {
		t.Errorf("Unit sums: got %d/%d, want 300/30", mixer.TotalUnits, mixer.DefectiveUnits)
	}
	if mixer.DowntimeMean != 30 {
		t.Errorf("Downtime mean: got %v, want 30", mixer.DowntimeMean)
	}
}

// TestAggregateInvalidDimension verifies unknown dimensions surface a configuration error
func TestAggregateInvalidDimension(t *testing.T) {
	agg := NewAggregator()
	_, err := agg.Aggregate(nil, entity.Dimension("factory"))
	if err == nil {
		t.Fatal("Expected error for unknown dimension")
	}
	if !errors.Is(err, entity.ErrInvalidConfiguration) {
		t.Errorf("Error should wrap ErrInvalidConfiguration, got: %v", err)
	}
}
