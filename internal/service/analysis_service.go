package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bitfantasy/nimo-oee/internal/analysis"
	"github.com/bitfantasy/nimo-oee/internal/config"
	"github.com/bitfantasy/nimo-oee/internal/model/entity"
	"github.com/bitfantasy/nimo-oee/internal/oee"
	"github.com/bitfantasy/nimo-oee/internal/simulator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisService 编排一次完整的分析运行：模拟→计算→聚合→损失分析。
// 完成的运行保存在内存登记表中供查询；失败的运行不会留下半成品结果。
type AnalysisService struct {
	cfg    *config.Config
	logger *zap.Logger

	sim  *simulator.Simulator
	calc *oee.Calculator
	agg  *analysis.Aggregator
	loss *analysis.LossAnalyzer

	mu   sync.RWMutex
	runs map[string]*AnalysisRun
}

func NewAnalysisService(cfg *config.Config, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		cfg:    cfg,
		logger: logger,
		sim:    simulator.New(),
		calc:   oee.New(),
		agg:    analysis.NewAggregator(),
		loss:   analysis.NewLossAnalyzer(),
		runs:   make(map[string]*AnalysisRun),
	}
}

// RunRequest 分析运行请求
type RunRequest struct {
	Records     int    `json:"records"`
	HorizonDays int    `json:"horizon_days"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD，空=配置默认
	Seed        int64  `json:"seed"`       // 0=取当前时间派生，实际种子回显在摘要里
}

// RunSummary 运行摘要。各均值只在这里算一次，下游报表统一引用，避免口径不一致。
type RunSummary struct {
	ID           string              `json:"id"`
	RunCode      string              `json:"run_code"`
	CreatedAt    time.Time           `json:"created_at"`
	Seed         int64               `json:"seed"`
	StartDate    time.Time           `json:"start_date"`
	HorizonDays  int                 `json:"horizon_days"`
	Records      int                 `json:"records"`
	TotalUnits   int                 `json:"total_units"`
	TotalDefects int                 `json:"total_defects"`
	Means        entity.MetricMeans  `json:"means"`
	Tally        entity.DiscardTally `json:"tally"`
}

// AnalysisRun 一次完整运行的全部结果表
type AnalysisRun struct {
	Summary    RunSummary                                 `json:"summary"`
	Records    []entity.OeeRecord                         `json:"records"`
	Aggregates map[entity.Dimension][]entity.AggregateRow `json:"aggregates"`
	Losses     entity.LossAnalysis                        `json:"losses"`
}

// Run 执行一次完整分析。整条流水线同步跑完，任何一步失败则什么都不保存。
func (s *AnalysisService) Run(req RunRequest) (*AnalysisRun, error) {
	params, err := s.resolveParams(req)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	records, tally, err := s.sim.Generate(params)
	if err != nil {
		return nil, fmt.Errorf("生产数据模拟失败: %w", err)
	}

	oeeRecords, calcTally := s.calc.Compute(records)
	tally.Degenerate = calcTally.Degenerate

	aggregates := make(map[entity.Dimension][]entity.AggregateRow, 3)
	for _, dim := range []entity.Dimension{entity.DimensionMachine, entity.DimensionShift, entity.DimensionMonth} {
		rows, err := s.agg.Aggregate(oeeRecords, dim)
		if err != nil {
			return nil, fmt.Errorf("按%s聚合失败: %w", dim, err)
		}
		aggregates[dim] = rows
	}

	losses := s.loss.Analyze(oeeRecords)

	now := time.Now()
	run := &AnalysisRun{
		Summary: RunSummary{
			ID:          uuid.New().String(),
			RunCode:     fmt.Sprintf("OEE-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
			CreatedAt:   now,
			Seed:        params.Seed,
			StartDate:   params.StartDate,
			HorizonDays: params.HorizonDays,
			Records:     len(oeeRecords),
			Means:       MetricMeans(oeeRecords),
			Tally:       tally,
		},
		Records:    oeeRecords,
		Aggregates: aggregates,
		Losses:     losses,
	}
	for _, r := range oeeRecords {
		run.Summary.TotalUnits += r.TotalUnitsProduced
		run.Summary.TotalDefects += r.DefectiveUnits
	}

	s.mu.Lock()
	s.runs[run.Summary.ID] = run
	s.mu.Unlock()

	s.logger.Info("Analysis run completed",
		zap.String("run_code", run.Summary.RunCode),
		zap.Int("records", run.Summary.Records),
		zap.Int64("seed", run.Summary.Seed),
		zap.Float64("oee_mean", run.Summary.Means.OEE),
		zap.Int("discarded", tally.WeekendSkipped+tally.Rejected),
		zap.Int("degenerate", tally.Degenerate),
	)

	return run, nil
}

// resolveParams 请求参数与配置默认值合并，解析种子
func (s *AnalysisService) resolveParams(req RunRequest) (simulator.Params, error) {
	params := simulator.Params{
		Records:     req.Records,
		HorizonDays: req.HorizonDays,
		Seed:        req.Seed,
	}
	if params.Records <= 0 {
		params.Records = s.cfg.Simulation.Records
	}
	if params.HorizonDays <= 0 {
		params.HorizonDays = s.cfg.Simulation.HorizonDays
	}

	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return params, fmt.Errorf("start_date 格式错误（应为YYYY-MM-DD）: %w", err)
		}
		params.StartDate = t
	} else {
		t, err := s.cfg.Simulation.StartDateTime()
		if err != nil {
			return params, err
		}
		params.StartDate = t
	}

	// 种子为0时取当前时间派生，并回显给调用方以便复现
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}
	return params, nil
}

// Get 按ID取运行结果
func (s *AnalysisService) Get(id string) (*AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrRunNotFound, id)
	}
	return run, nil
}

// List 全部运行摘要，按创建时间排列
func (s *AnalysisService) List() []RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		summaries = append(summaries, run.Summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// MetricMeans 四项指标的批均值，退化记录按哨兵值0参与
func MetricMeans(records []entity.OeeRecord) entity.MetricMeans {
	var m entity.MetricMeans
	if len(records) == 0 {
		return m
	}
	for _, r := range records {
		m.OEE += r.OEE
		m.Availability += r.Availability
		m.Performance += r.Performance
		m.Quality += r.Quality
	}
	n := float64(len(records))
	m.OEE /= n
	m.Availability /= n
	m.Performance /= n
	m.Quality /= n
	return m
}
