// Package analysis 对OEE记录批次做分组汇总与损失分析。
// 所有函数都是批次的纯函数，不修改输入，输出排序稳定可比对。
package analysis

import (
	"fmt"
	"sort"

	"github.com/bitfantasy/nimo-oee/internal/model/entity"
)

// Aggregator 按维度分组汇总OEE记录
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate 按指定维度分组并汇总。
// 设备/班次维度输出固定集合的全部分组（无记录的分组输出Records=0的空行），
// 按枚举声明顺序排列；月份维度只输出数据中出现的月份，按时间排列。
// 排序始终跟随自然键而不是统计值，保证多次运行结果可diff。
func (a *Aggregator) Aggregate(records []entity.OeeRecord, dim entity.Dimension) ([]entity.AggregateRow, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: 未知聚合维度 %q", entity.ErrInvalidConfiguration, string(dim))
	}

	groups := make(map[string][]entity.OeeRecord)
	for _, rec := range records {
		key, err := groupKey(rec, dim)
		if err != nil {
			return nil, err
		}
		groups[key] = append(groups[key], rec)
	}

	keys, err := orderedKeys(groups, dim)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.AggregateRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, summarize(key, groups[key]))
	}
	return rows, nil
}

func groupKey(rec entity.OeeRecord, dim entity.Dimension) (string, error) {
	switch dim {
	case entity.DimensionMachine:
		if !rec.Machine.Valid() {
			return "", fmt.Errorf("%w: 未知设备 %q", entity.ErrInvalidConfiguration, string(rec.Machine))
		}
		return string(rec.Machine), nil
	case entity.DimensionShift:
		if !rec.Shift.Valid() {
			return "", fmt.Errorf("%w: 未知班次 %q", entity.ErrInvalidConfiguration, string(rec.Shift))
		}
		return string(rec.Shift), nil
	default:
		return entity.MonthKey(rec.Date), nil
	}
}

// orderedKeys 分组键的自然顺序：设备/班次按枚举声明顺序全集输出，月份按时间排序
func orderedKeys(groups map[string][]entity.OeeRecord, dim entity.Dimension) ([]string, error) {
	switch dim {
	case entity.DimensionMachine:
		keys := make([]string, 0, len(entity.Machines))
		for _, m := range entity.Machines {
			keys = append(keys, string(m))
		}
		return keys, nil
	case entity.DimensionShift:
		keys := make([]string, 0, len(entity.Shifts))
		for _, s := range entity.Shifts {
			keys = append(keys, string(s))
		}
		return keys, nil
	default:
		keys := make([]string, 0, len(groups))
		for key := range groups {
			keys = append(keys, key)
		}
		sort.Strings(keys) // YYYY-MM 字典序即时间序
		return keys, nil
	}
}

func summarize(key string, recs []entity.OeeRecord) entity.AggregateRow {
	row := entity.AggregateRow{Key: key, Records: len(recs)}
	if len(recs) == 0 {
		return row // 空分组显式输出零值行，不省略
	}

	oee := make([]float64, len(recs))
	availability := make([]float64, len(recs))
	performance := make([]float64, len(recs))
	quality := make([]float64, len(recs))
	downtime := make([]float64, len(recs))
	for i, r := range recs {
		oee[i] = r.OEE
		availability[i] = r.Availability
		performance[i] = r.Performance
		quality[i] = r.Quality
		downtime[i] = r.DowntimeMinutes
		row.TotalUnits += r.TotalUnitsProduced
		row.DefectiveUnits += r.DefectiveUnits
	}

	row.OEEMean = mean(oee)
	row.OEEStd = stddev(oee)
	row.OEEMin, row.OEEMax = minMax(oee)
	row.AvailabilityMean = mean(availability)
	row.PerformanceMean = mean(performance)
	row.QualityMean = mean(quality)
	row.DowntimeMean = mean(downtime)
	return row
}
