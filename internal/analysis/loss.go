package analysis

import (
	"sort"

	"github.com/bitfantasy/nimo-oee/internal/model/entity"
)

// DefaultWorstSpeedLimit 速度损失最差记录榜的默认条数
const DefaultWorstSpeedLimit = 10

// LossAnalyzer 三类损失分析：停机帕累托、速度损失、质量损失
type LossAnalyzer struct{}

func NewLossAnalyzer() *LossAnalyzer {
	return &LossAnalyzer{}
}

// Analyze 对一个批次执行全部损失分析
func (a *LossAnalyzer) Analyze(records []entity.OeeRecord) entity.LossAnalysis {
	speedRows, worst := a.SpeedLoss(records, DefaultWorstSpeedLimit)
	qualityRows, shiftRows := a.QualityLoss(records)
	return entity.LossAnalysis{
		DowntimePareto:  a.DowntimePareto(records),
		MachineDowntime: a.MachineDowntime(records),
		SpeedLoss:       speedRows,
		WorstSpeed:      worst,
		QualityLoss:     qualityRows,
		ShiftQuality:    shiftRows,
	}
}

// DowntimePareto 停机原因帕累托分析：过滤有停机的记录，按原因汇总停机时长，
// 按总时长降序排列（同值按原因名升序保证稳定），累计百分比列单调不减、末行为100。
func (a *LossAnalyzer) DowntimePareto(records []entity.OeeRecord) []entity.ParetoRow {
	type acc struct {
		total float64
		count int
	}
	sums := make(map[entity.DowntimeReason]*acc)
	var grandTotal float64

	for _, rec := range records {
		if rec.DowntimeMinutes <= 0 {
			continue
		}
		s, ok := sums[rec.DowntimeReason]
		if !ok {
			s = &acc{}
			sums[rec.DowntimeReason] = s
		}
		s.total += rec.DowntimeMinutes
		s.count++
		grandTotal += rec.DowntimeMinutes
	}

	rows := make([]entity.ParetoRow, 0, len(sums))
	for reason, s := range sums {
		rows = append(rows, entity.ParetoRow{
			Reason:       reason,
			TotalMinutes: s.total,
			MeanMinutes:  s.total / float64(s.count),
			Frequency:    s.count,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalMinutes != rows[j].TotalMinutes {
			return rows[i].TotalMinutes > rows[j].TotalMinutes
		}
		return rows[i].Reason < rows[j].Reason
	})

	var running float64
	for i := range rows {
		running += rows[i].TotalMinutes
		rows[i].CumulativePct = running / grandTotal * 100
	}
	return rows
}

// MachineDowntime 设备×停机原因的停机时长分解。只输出实际发生过的组合，
// 行序固定为设备、原因的声明顺序。
func (a *LossAnalyzer) MachineDowntime(records []entity.OeeRecord) []entity.MachineDowntimeRow {
	type key struct {
		machine entity.Machine
		reason  entity.DowntimeReason
	}
	totals := make(map[key]float64)
	for _, rec := range records {
		if rec.DowntimeMinutes <= 0 {
			continue
		}
		totals[key{rec.Machine, rec.DowntimeReason}] += rec.DowntimeMinutes
	}

	rows := make([]entity.MachineDowntimeRow, 0, len(totals))
	for _, m := range entity.Machines {
		for _, reason := range entity.DowntimeReasons {
			if total, ok := totals[key{m, reason}]; ok {
				rows = append(rows, entity.MachineDowntimeRow{
					Machine:      m,
					Reason:       reason,
					TotalMinutes: total,
				})
			}
		}
	}
	return rows
}

// SpeedLoss 速度损失分析。每条记录的损失率 = (实际节拍-理论节拍)/理论节拍×100，
// 按设备汇总，另给出损失率最大的limit条记录（稳定排序，同值保持原始顺序）。
func (a *LossAnalyzer) SpeedLoss(records []entity.OeeRecord, limit int) ([]entity.SpeedLossRow, []entity.SpeedLossRecord) {
	type acc struct {
		losses  []float64
		ideals  []float64
		actuals []float64
		units   int
	}
	byMachine := make(map[entity.Machine]*acc)
	worst := make([]entity.SpeedLossRecord, 0, len(records))

	for _, rec := range records {
		if rec.IdealCycleTime <= 0 {
			continue
		}
		lossPct := (rec.ActualCycleTime - rec.IdealCycleTime) / rec.IdealCycleTime * 100

		s, ok := byMachine[rec.Machine]
		if !ok {
			s = &acc{}
			byMachine[rec.Machine] = s
		}
		s.losses = append(s.losses, lossPct)
		s.ideals = append(s.ideals, rec.IdealCycleTime)
		s.actuals = append(s.actuals, rec.ActualCycleTime)
		s.units += rec.TotalUnitsProduced

		worst = append(worst, entity.SpeedLossRecord{
			Date:         rec.Date,
			Machine:      rec.Machine,
			Shift:        rec.Shift,
			SpeedLossPct: lossPct,
		})
	}

	rows := make([]entity.SpeedLossRow, 0, len(entity.Machines))
	for _, m := range entity.Machines {
		row := entity.SpeedLossRow{Machine: m}
		if s, ok := byMachine[m]; ok {
			row.Records = len(s.losses)
			row.MeanLossPct = mean(s.losses)
			row.StdLossPct = stddev(s.losses)
			_, row.MaxLossPct = minMax(s.losses)
			row.MeanIdealCycle = mean(s.ideals)
			row.MeanActualCycle = mean(s.actuals)
			row.TotalUnits = s.units
		}
		rows = append(rows, row)
	}

	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].SpeedLossPct > worst[j].SpeedLossPct
	})
	if limit > 0 && len(worst) > limit {
		worst = worst[:limit]
	}
	return rows, worst
}

// QualityLoss 质量损失分析。每条记录的不良率 = 不良数/总产量×100，
// 退化记录（产量为0）不参与不良率统计。按设备与班次两个口径汇总。
func (a *LossAnalyzer) QualityLoss(records []entity.OeeRecord) ([]entity.QualityLossRow, []entity.ShiftQualityRow) {
	type acc struct {
		rates     []float64
		qualities []float64
		defects   int
		units     int
	}
	byMachine := make(map[entity.Machine]*acc)
	byShift := make(map[entity.Shift]*acc)

	for _, rec := range records {
		if rec.Degenerate || rec.TotalUnitsProduced <= 0 {
			continue
		}
		rate := float64(rec.DefectiveUnits) / float64(rec.TotalUnitsProduced) * 100

		m, ok := byMachine[rec.Machine]
		if !ok {
			m = &acc{}
			byMachine[rec.Machine] = m
		}
		m.rates = append(m.rates, rate)
		m.qualities = append(m.qualities, rec.Quality)
		m.defects += rec.DefectiveUnits
		m.units += rec.TotalUnitsProduced

		s, ok := byShift[rec.Shift]
		if !ok {
			s = &acc{}
			byShift[rec.Shift] = s
		}
		s.rates = append(s.rates, rate)
		s.qualities = append(s.qualities, rec.Quality)
	}

	machineRows := make([]entity.QualityLossRow, 0, len(entity.Machines))
	for _, m := range entity.Machines {
		row := entity.QualityLossRow{Machine: m}
		if s, ok := byMachine[m]; ok {
			row.Records = len(s.rates)
			row.MeanDefectRate = mean(s.rates)
			row.StdDefectRate = stddev(s.rates)
			_, row.MaxDefectRate = minMax(s.rates)
			row.MeanQuality = mean(s.qualities)
			row.MinQuality, _ = minMax(s.qualities)
			row.TotalDefects = s.defects
			row.TotalUnits = s.units
		}
		machineRows = append(machineRows, row)
	}

	shiftRows := make([]entity.ShiftQualityRow, 0, len(entity.Shifts))
	for _, sh := range entity.Shifts {
		row := entity.ShiftQualityRow{Shift: sh}
		if s, ok := byShift[sh]; ok {
			row.Records = len(s.rates)
			row.MeanDefectRate = mean(s.rates)
			row.MeanQuality = mean(s.qualities)
		}
		shiftRows = append(shiftRows, row)
	}

	return machineRows, shiftRows
}
