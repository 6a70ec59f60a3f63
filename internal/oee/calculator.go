// Package oee 实现单条生产记录的OEE指标计算。
//
// 截断规则：Availability/Performance/Quality 先各自截断到[0,100]，
// OEE 由截断后的分量相乘得出，保证 oee == a×p×q/10000 恒成立。
package oee

import (
	"github.com/bitfantasy/nimo-oee/internal/model/entity"
)

// Calculator OEE计算器。纯函数，无内部状态，同一输入必得同一输出。
type Calculator struct{}

func New() *Calculator {
	return &Calculator{}
}

// Compute 为每条生产记录计算OEE指标，输出与输入等长同序，不修改输入。
// 产量为0的记录：Performance/Quality置0、打Degenerate标记并计入退化统计，
// 不会产生除零或NaN。
func (c *Calculator) Compute(records []entity.ProductionRecord) ([]entity.OeeRecord, entity.DiscardTally) {
	results := make([]entity.OeeRecord, len(records))
	var tally entity.DiscardTally

	for i, rec := range records {
		results[i] = computeOne(rec)
		if results[i].Degenerate {
			tally.Degenerate++
		}
	}

	return results, tally
}

func computeOne(rec entity.ProductionRecord) entity.OeeRecord {
	out := entity.OeeRecord{ProductionRecord: rec}

	// Availability = 可用时间 / 计划时间
	if rec.PlannedProductionTime > 0 {
		out.Availability = clamp(rec.AvailableMinutes() / rec.PlannedProductionTime * 100)
	}

	available := rec.AvailableMinutes()
	if rec.TotalUnitsProduced <= 0 || available <= 0 {
		// 产量为0：Performance/Quality无定义，置哨兵值0并打标
		out.Degenerate = true
		out.Performance = 0
		out.Quality = 0
		out.OEE = 0
		return out
	}

	// Performance = 理论节拍×产量 / 可用时间
	out.Performance = clamp(rec.IdealCycleTime * float64(rec.TotalUnitsProduced) / (available * 60) * 100)

	// Quality = 良品数 / 总产量
	out.Quality = clamp(float64(rec.GoodUnits) / float64(rec.TotalUnitsProduced) * 100)

	// OEE由截断后的分量相乘，结果必然在[0,100]内
	out.OEE = clamp(out.Availability * out.Performance * out.Quality / 10000)

	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
