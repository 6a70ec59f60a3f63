package entity

import "time"

// Dimension 聚合维度
type Dimension string

const (
	DimensionMachine Dimension = "machine"
	DimensionShift   Dimension = "shift"
	DimensionMonth   Dimension = "month"
)

// Valid 聚合维度是否合法
func (d Dimension) Valid() bool {
	return d == DimensionMachine || d == DimensionShift || d == DimensionMonth
}

// AggregateRow 单个分组的汇总统计
type AggregateRow struct {
	Key              string  `json:"key"` // 设备名/班次名/YYYY-MM
	Records          int     `json:"records"`
	OEEMean          float64 `json:"oee_mean"`
	OEEStd           float64 `json:"oee_std"`
	OEEMin           float64 `json:"oee_min"`
	OEEMax           float64 `json:"oee_max"`
	AvailabilityMean float64 `json:"availability_mean"`
	PerformanceMean  float64 `json:"performance_mean"`
	QualityMean      float64 `json:"quality_mean"`
	TotalUnits       int     `json:"total_units"`
	DefectiveUnits   int     `json:"defective_units"`
	DowntimeMean     float64 `json:"downtime_mean"`
}

// ParetoRow 停机原因帕累托分析行
type ParetoRow struct {
	Reason        DowntimeReason `json:"reason"`
	TotalMinutes  float64        `json:"total_minutes"`
	MeanMinutes   float64        `json:"mean_minutes"`
	Frequency     int            `json:"frequency"`
	CumulativePct float64        `json:"cumulative_pct"`
}

// MachineDowntimeRow 设备×停机原因的停机时长分解行
type MachineDowntimeRow struct {
	Machine      Machine        `json:"machine"`
	Reason       DowntimeReason `json:"reason"`
	TotalMinutes float64        `json:"total_minutes"`
}

// SpeedLossRow 设备速度损失汇总行
type SpeedLossRow struct {
	Machine         Machine `json:"machine"`
	Records         int     `json:"records"`
	MeanLossPct     float64 `json:"mean_loss_pct"`
	StdLossPct      float64 `json:"std_loss_pct"`
	MaxLossPct      float64 `json:"max_loss_pct"`
	MeanIdealCycle  float64 `json:"mean_ideal_cycle"`
	MeanActualCycle float64 `json:"mean_actual_cycle"`
	TotalUnits      int     `json:"total_units"`
}

// SpeedLossRecord 单条记录的速度损失（用于Top-K最差记录）
type SpeedLossRecord struct {
	Date         time.Time `json:"date"`
	Machine      Machine   `json:"machine"`
	Shift        Shift     `json:"shift"`
	SpeedLossPct float64   `json:"speed_loss_pct"`
}

// QualityLossRow 设备质量损失汇总行
type QualityLossRow struct {
	Machine        Machine `json:"machine"`
	Records        int     `json:"records"`
	MeanDefectRate float64 `json:"mean_defect_rate"`
	StdDefectRate  float64 `json:"std_defect_rate"`
	MaxDefectRate  float64 `json:"max_defect_rate"`
	MeanQuality    float64 `json:"mean_quality"`
	MinQuality     float64 `json:"min_quality"`
	TotalDefects   int     `json:"total_defects"`
	TotalUnits     int     `json:"total_units"`
}

// ShiftQualityRow 班次质量汇总行
type ShiftQualityRow struct {
	Shift          Shift   `json:"shift"`
	Records        int     `json:"records"`
	MeanDefectRate float64 `json:"mean_defect_rate"`
	MeanQuality    float64 `json:"mean_quality"`
}

// LossAnalysis 三类损失分析结果
type LossAnalysis struct {
	DowntimePareto  []ParetoRow          `json:"downtime_pareto"`
	MachineDowntime []MachineDowntimeRow `json:"machine_downtime"`
	SpeedLoss       []SpeedLossRow       `json:"speed_loss"`
	WorstSpeed      []SpeedLossRecord    `json:"worst_speed"`
	QualityLoss     []QualityLossRow     `json:"quality_loss"`
	ShiftQuality    []ShiftQualityRow    `json:"shift_quality"`
}

// MetricMeans 四项指标的批均值
type MetricMeans struct {
	OEE          float64 `json:"oee"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
}

// ImprovementComparison 改善方案前后对比与财务测算
type ImprovementComparison struct {
	Baseline MetricMeans `json:"baseline"`
	Improved MetricMeans `json:"improved"`

	BaselineUnits      int     `json:"baseline_units"`
	ProjectedUnits     float64 `json:"projected_units"`
	ProductionIncrease float64 `json:"production_increase"`
	RevenueIncrease    float64 `json:"revenue_increase"`
	Investment         float64 `json:"investment"`
	ROIPct             float64 `json:"roi_pct"`
	PaybackYears       float64 `json:"payback_years"`
}
