package entity

import (
	"fmt"
	"time"
)

// Shift 班次
type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftNight     Shift = "Night"
)

// Shifts 固定班次集合（声明顺序即自然排序）
var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

// shiftPlannedMinutes 各班次计划生产时间（分钟）
var shiftPlannedMinutes = map[Shift]float64{
	ShiftMorning:   480, // 8小时
	ShiftAfternoon: 480, // 8小时
	ShiftNight:     420, // 7小时
}

// PlannedMinutes 班次的计划生产时间
func (s Shift) PlannedMinutes() (float64, error) {
	m, ok := shiftPlannedMinutes[s]
	if !ok {
		return 0, fmt.Errorf("%w: 未知班次 %q", ErrInvalidConfiguration, string(s))
	}
	return m, nil
}

// Valid 班次是否在固定集合内
func (s Shift) Valid() bool {
	_, ok := shiftPlannedMinutes[s]
	return ok
}

// Machine 产线设备
type Machine string

const (
	MachineMixer    Machine = "Mixer"
	MachineFiller   Machine = "Filler"
	MachinePacker   Machine = "Packer"
	MachineConveyor Machine = "Conveyor"
)

// Machines 固定设备集合（声明顺序即自然排序）
var Machines = []Machine{MachineMixer, MachineFiller, MachinePacker, MachineConveyor}

// MachineProfile 设备工艺参数（饼干产线实测值）
type MachineProfile struct {
	IdealCycleTime float64 `json:"ideal_cycle_time"` // 理论节拍（秒/件）
	ActualCycleMin float64 `json:"actual_cycle_min"` // 实际节拍下限
	ActualCycleMax float64 `json:"actual_cycle_max"` // 实际节拍上限
	DowntimeMean   float64 `json:"downtime_mean"`    // 停机时间均值（分钟）
	DefectRateMin  float64 `json:"defect_rate_min"`  // 不良率下限（%）
	DefectRateMax  float64 `json:"defect_rate_max"`  // 不良率上限（%）
}

// DowntimeStdDev 各设备共用的停机时间标准差（分钟）
const DowntimeStdDev = 15.0

var machineProfiles = map[Machine]MachineProfile{
	MachineMixer:    {IdealCycleTime: 45, ActualCycleMin: 48, ActualCycleMax: 65, DowntimeMean: 45, DefectRateMin: 0.2, DefectRateMax: 1.0},
	MachineFiller:   {IdealCycleTime: 2.5, ActualCycleMin: 2.8, ActualCycleMax: 4.2, DowntimeMean: 35, DefectRateMin: 0.8, DefectRateMax: 3.5},
	MachinePacker:   {IdealCycleTime: 3.0, ActualCycleMin: 3.2, ActualCycleMax: 4.8, DowntimeMean: 25, DefectRateMin: 0.5, DefectRateMax: 2.0},
	MachineConveyor: {IdealCycleTime: 1.8, ActualCycleMin: 1.9, ActualCycleMax: 2.5, DowntimeMean: 15, DefectRateMin: 0.2, DefectRateMax: 1.0},
}

// Profile 设备的工艺参数
func (m Machine) Profile() (MachineProfile, error) {
	p, ok := machineProfiles[m]
	if !ok {
		return MachineProfile{}, fmt.Errorf("%w: 未知设备 %q", ErrInvalidConfiguration, string(m))
	}
	return p, nil
}

// Valid 设备是否在固定集合内
func (m Machine) Valid() bool {
	_, ok := machineProfiles[m]
	return ok
}

// DowntimeReason 停机原因
type DowntimeReason string

const (
	ReasonBreakdown     DowntimeReason = "Breakdown"
	ReasonChangeover    DowntimeReason = "Changeover"
	ReasonCleaning      DowntimeReason = "Cleaning"
	ReasonMinorStoppage DowntimeReason = "Minor Stoppage"
	ReasonPowerFailure  DowntimeReason = "Power Failure"
	ReasonNone          DowntimeReason = "None"
)

// DowntimeReasons 固定停机原因集合（不含None）
var DowntimeReasons = []DowntimeReason{
	ReasonBreakdown,
	ReasonChangeover,
	ReasonCleaning,
	ReasonMinorStoppage,
	ReasonPowerFailure,
}

// Valid 停机原因是否在固定集合内
func (r DowntimeReason) Valid() bool {
	if r == ReasonNone {
		return true
	}
	for _, known := range DowntimeReasons {
		if r == known {
			return true
		}
	}
	return false
}

// ProductionRecord 生产记录（模拟器输出，创建后不可变）
type ProductionRecord struct {
	Date                  time.Time      `json:"date"`
	Shift                 Shift          `json:"shift"`
	Machine               Machine        `json:"machine"`
	PlannedProductionTime float64        `json:"planned_production_time"` // 分钟
	DowntimeMinutes       float64        `json:"downtime_minutes"`
	DowntimeReason        DowntimeReason `json:"downtime_reason"`
	IdealCycleTime        float64        `json:"ideal_cycle_time"` // 秒/件
	ActualCycleTime       float64        `json:"actual_cycle_time"`
	TotalUnitsProduced    int            `json:"total_units_produced"`
	DefectiveUnits        int            `json:"defective_units"`
	GoodUnits             int            `json:"good_units"`
}

// AvailableMinutes 可用生产时间 = 计划时间 - 停机时间
func (r ProductionRecord) AvailableMinutes() float64 {
	return r.PlannedProductionTime - r.DowntimeMinutes
}

// OeeRecord 生产记录 + 四项OEE指标（计算后各自截断到[0,100]）
type OeeRecord struct {
	ProductionRecord

	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`

	// Degenerate 产量为0的记录：Performance/Quality置0并打标，不参与损失分析
	Degenerate bool `json:"degenerate,omitempty"`
}

// MonthKey 月份聚合键，格式 YYYY-MM。所有聚合/导出统一走这里，避免各处口径漂移。
func MonthKey(date time.Time) string {
	return date.Format("2006-01")
}
