package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bitfantasy/nimo-oee/internal/model/entity"
)

// Params 模拟参数。Seed必须由调用方显式给定，保证同一种子可复现同一批次。
type Params struct {
	Records     int       `json:"records"`      // 抽样次数（最终记录数 <= Records）
	HorizonDays int       `json:"horizon_days"` // 模拟时间范围（天）
	StartDate   time.Time `json:"start_date"`
	Seed        int64     `json:"seed"`
}

const (
	DefaultRecords     = 4000
	DefaultHorizonDays = 180 // 6个月

	// weekendSkipProb 周日抽样被丢弃的概率（周末减产）
	weekendSkipProb = 0.7
)

// DefaultStartDate 默认模拟起始日期
var DefaultStartDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

// Normalize 填充默认值
func (p *Params) Normalize() {
	if p.Records <= 0 {
		p.Records = DefaultRecords
	}
	if p.HorizonDays <= 0 {
		p.HorizonDays = DefaultHorizonDays
	}
	if p.StartDate.IsZero() {
		p.StartDate = DefaultStartDate
	}
}

// Simulator 生产记录模拟器。无内部状态，随机源按次构造，互不影响。
type Simulator struct{}

func New() *Simulator {
	return &Simulator{}
}

// Generate 按参数随机生成一批生产记录。
// 周日抽样按概率丢弃；节拍或可用时间非法的记录被拒绝，计入丢弃统计。
func (s *Simulator) Generate(p Params) ([]entity.ProductionRecord, entity.DiscardTally, error) {
	p.Normalize()

	rng := rand.New(rand.NewSource(p.Seed))
	records := make([]entity.ProductionRecord, 0, p.Records)
	var tally entity.DiscardTally

	for i := 0; i < p.Records; i++ {
		date := p.StartDate.AddDate(0, 0, rng.Intn(p.HorizonDays+1))

		// 周末减产：周日抽样按固定概率跳过，不补抽
		if date.Weekday() == time.Sunday && rng.Float64() < weekendSkipProb {
			tally.WeekendSkipped++
			continue
		}

		shift := entity.Shifts[rng.Intn(len(entity.Shifts))]
		machine := entity.Machines[rng.Intn(len(entity.Machines))]

		planned, err := shift.PlannedMinutes()
		if err != nil {
			return nil, tally, err
		}
		profile, err := machine.Profile()
		if err != nil {
			return nil, tally, err
		}

		rec, ok := drawRecord(rng, date, shift, machine, planned, profile)
		if !ok {
			tally.Rejected++
			continue
		}
		records = append(records, rec)
	}

	return records, tally, nil
}

// drawRecord 抽取一条记录。节拍<=0或可用时间<=0时返回ok=false。
func drawRecord(rng *rand.Rand, date time.Time, shift entity.Shift, machine entity.Machine, planned float64, profile entity.MachineProfile) (entity.ProductionRecord, bool) {
	// 停机时间：设备相关正态分布，截断到 [0, 0.5×计划时间]
	downtime := profile.DowntimeMean + rng.NormFloat64()*entity.DowntimeStdDev
	if downtime < 0 {
		downtime = 0
	}
	if limit := planned * 0.5; downtime > limit {
		downtime = limit
	}

	reason := drawReason(rng, downtime)

	actualCycle := profile.ActualCycleMin + rng.Float64()*(profile.ActualCycleMax-profile.ActualCycleMin)
	available := planned - downtime
	if actualCycle <= 0 || available <= 0 {
		return entity.ProductionRecord{}, false
	}

	totalUnits := int(available * 60 / actualCycle)

	defectRate := profile.DefectRateMin + rng.Float64()*(profile.DefectRateMax-profile.DefectRateMin)
	defective := int(float64(totalUnits) * defectRate / 100)

	return entity.ProductionRecord{
		Date:                  date,
		Shift:                 shift,
		Machine:               machine,
		PlannedProductionTime: planned,
		DowntimeMinutes:       downtime,
		DowntimeReason:        reason,
		IdealCycleTime:        profile.IdealCycleTime,
		ActualCycleTime:       actualCycle,
		TotalUnitsProduced:    totalUnits,
		DefectiveUnits:        defective,
		GoodUnits:             totalUnits - defective,
	}, true
}

// drawReason 按停机时长分档抽取停机原因，档内均匀随机。
// 分档边界为严格大于：恰好30分钟或60分钟落入下方档位。
func drawReason(rng *rand.Rand, downtime float64) entity.DowntimeReason {
	switch {
	case downtime == 0:
		return entity.ReasonNone
	case downtime > 60:
		return pick(rng, entity.ReasonBreakdown, entity.ReasonChangeover)
	case downtime > 30:
		return pick(rng, entity.ReasonCleaning, entity.ReasonBreakdown)
	default:
		return pick(rng, entity.ReasonMinorStoppage, entity.ReasonPowerFailure)
	}
}

func pick(rng *rand.Rand, a, b entity.DowntimeReason) entity.DowntimeReason {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}

// Validate 参数合法性检查（HTTP层使用）
func (p Params) Validate() error {
	if p.Records < 0 {
		return fmt.Errorf("records 不能为负数: %d", p.Records)
	}
	if p.HorizonDays < 0 {
		return fmt.Errorf("horizon_days 不能为负数: %d", p.HorizonDays)
	}
	return nil
}
