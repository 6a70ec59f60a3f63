package service

import (
	"github.com/bitfantasy/nimo-oee/internal/config"
	"github.com/bitfantasy/nimo-oee/internal/model/entity"
	"github.com/bitfantasy/nimo-oee/internal/oee"
	"go.uber.org/zap"
)

// ImprovementService 改善方案影响测算。
// 在基线批次的深拷贝上施加改善系数并重新计算指标，基线本身不被改动，
// 保证前后对比始终成立。
type ImprovementService struct {
	cfg    *config.Config
	logger *zap.Logger
	calc   *oee.Calculator
}

func NewImprovementService(cfg *config.Config, logger *zap.Logger) *ImprovementService {
	return &ImprovementService{
		cfg:    cfg,
		logger: logger,
		calc:   oee.New(),
	}
}

// ImprovementResult 改善后的批次与前后对比
type ImprovementResult struct {
	Records    []entity.OeeRecord           `json:"records"`
	Comparison entity.ImprovementComparison `json:"comparison"`
}

// Simulate 在基线上模拟改善效果。
// 停机时间、实际节拍、不良率分别乘以配置系数，产量按改善后的可用时间
// 和节拍重新推导（保持 良品+不良=总产量 的不变量），再走一遍计算器。
func (s *ImprovementService) Simulate(baseline []entity.OeeRecord, baselineMeans entity.MetricMeans) *ImprovementResult {
	imp := s.cfg.Improvement

	improved := make([]entity.ProductionRecord, len(baseline))
	var baselineUnits int
	for i, rec := range baseline {
		baselineUnits += rec.TotalUnitsProduced

		p := rec.ProductionRecord // 值拷贝，基线不受影响
		origRate := 0.0
		if p.TotalUnitsProduced > 0 {
			origRate = float64(p.DefectiveUnits) / float64(p.TotalUnitsProduced) * 100
		}

		p.DowntimeMinutes *= imp.DowntimeFactor
		if p.DowntimeMinutes == 0 {
			p.DowntimeReason = entity.ReasonNone
		}
		p.ActualCycleTime *= imp.CycleTimeFactor

		if p.ActualCycleTime > 0 && p.AvailableMinutes() > 0 {
			p.TotalUnitsProduced = int(p.AvailableMinutes() * 60 / p.ActualCycleTime)
		}
		p.DefectiveUnits = int(float64(p.TotalUnitsProduced) * origRate * imp.DefectFactor / 100)
		p.GoodUnits = p.TotalUnitsProduced - p.DefectiveUnits

		improved[i] = p
	}

	improvedRecords, _ := s.calc.Compute(improved)
	improvedMeans := MetricMeans(improvedRecords)

	comparison := s.compare(baselineMeans, improvedMeans, baselineUnits)

	s.logger.Info("Improvement scenario simulated",
		zap.Float64("baseline_oee", baselineMeans.OEE),
		zap.Float64("improved_oee", improvedMeans.OEE),
		zap.Float64("roi_pct", comparison.ROIPct),
	)

	return &ImprovementResult{
		Records:    improvedRecords,
		Comparison: comparison,
	}
}

// compare 产能与财务测算。各项标量只在这里算一次，所有报表统一引用。
func (s *ImprovementService) compare(baseline, improved entity.MetricMeans, baselineUnits int) entity.ImprovementComparison {
	c := entity.ImprovementComparison{
		Baseline:      baseline,
		Improved:      improved,
		BaselineUnits: baselineUnits,
		Investment:    s.cfg.Finance.Investment,
	}

	if baseline.OEE > 0 {
		c.ProjectedUnits = float64(baselineUnits) * improved.OEE / baseline.OEE
		c.ProductionIncrease = c.ProjectedUnits - float64(baselineUnits)
	}
	c.RevenueIncrease = c.ProductionIncrease * s.cfg.Finance.UnitPrice

	// 收益或投资不为正时ROI/回收期无意义，保持0（避免Inf进入JSON）
	if c.Investment > 0 && c.RevenueIncrease > 0 {
		c.ROIPct = c.RevenueIncrease / c.Investment * 100
		c.PaybackYears = c.Investment / c.RevenueIncrease
	}
	return c
}
