package entity

import "errors"

var (
	// ErrInvalidConfiguration 引用了固定集合之外的设备/班次/停机原因，致命错误
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRunNotFound 分析运行不存在
	ErrRunNotFound = errors.New("run not found")
)

// DiscardTally 模拟与计算阶段的丢弃/退化计数，供调用方诊断
type DiscardTally struct {
	WeekendSkipped int `json:"weekend_skipped"` // 周末抽样被跳过的次数
	Rejected       int `json:"rejected"`        // 节拍或可用时间非法被拒绝的记录数
	Degenerate     int `json:"degenerate"`      // 产量为0被置哨兵值的记录数
}

// Total 丢弃与退化记录总数
func (t DiscardTally) Total() int {
	return t.WeekendSkipped + t.Rejected + t.Degenerate
}
