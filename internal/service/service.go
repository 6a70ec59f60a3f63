package service

import (
	"github.com/bitfantasy/nimo-oee/internal/config"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Analysis    *AnalysisService
	Improvement *ImprovementService
}

// NewServices 创建服务集合
func NewServices(cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Analysis:    NewAnalysisService(cfg, logger),
		Improvement: NewImprovementService(cfg, logger),
	}
}
