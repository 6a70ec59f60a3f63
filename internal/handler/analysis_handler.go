package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bitfantasy/nimo-oee/internal/export"
	"github.com/bitfantasy/nimo-oee/internal/model/entity"
	"github.com/bitfantasy/nimo-oee/internal/service"
	"github.com/gin-gonic/gin"
)

// AnalysisHandler 分析运行处理器
type AnalysisHandler struct {
	svc         *service.AnalysisService
	improvement *service.ImprovementService
}

// NewAnalysisHandler 创建分析运行处理器
func NewAnalysisHandler(svc *service.AnalysisService, improvement *service.ImprovementService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, improvement: improvement}
}

// CreateRun 执行一次完整分析运行
func (h *AnalysisHandler) CreateRun(c *gin.Context) {
	var req service.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	run, err := h.svc.Run(req)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidConfiguration) {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, run.Summary)
}

// ListRuns 运行摘要列表
func (h *AnalysisHandler) ListRuns(c *gin.Context) {
	Success(c, h.svc.List())
}

// GetRun 运行摘要
func (h *AnalysisHandler) GetRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	Success(c, run.Summary)
}

// GetRecords OEE记录表
func (h *AnalysisHandler) GetRecords(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	Success(c, run.Records)
}

// GetAggregates 按维度取聚合表
func (h *AnalysisHandler) GetAggregates(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	dim := entity.Dimension(c.Param("dimension"))
	rows, exists := run.Aggregates[dim]
	if !exists {
		BadRequest(c, "Unknown dimension: "+string(dim))
		return
	}
	Success(c, rows)
}

// GetLosses 三类损失分析表
func (h *AnalysisHandler) GetLosses(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	Success(c, run.Losses)
}

// SimulateImprovement 在基线运行上模拟改善方案
func (h *AnalysisHandler) SimulateImprovement(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	result := h.improvement.Simulate(run.Records, run.Summary.Means)
	Success(c, result.Comparison)
}

// ExportWorkbook 导出xlsx工作簿
func (h *AnalysisHandler) ExportWorkbook(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	f, filename, err := export.BuildWorkbook(run)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, err.Error())
	}
}

// ExportCSV 导出GBK编码的TSV（Windows Excel直接打开不乱码）
func (h *AnalysisHandler) ExportCSV(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	data, err := export.OeeTableTSV(run.Records)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	filename := fmt.Sprintf("OEE_Records_%s.csv", run.Summary.RunCode)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=gbk", data)
}

func (h *AnalysisHandler) loadRun(c *gin.Context) (*service.AnalysisRun, bool) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Run ID is required")
		return nil, false
	}

	run, err := h.svc.Get(id)
	if err != nil {
		if errors.Is(err, entity.ErrRunNotFound) {
			NotFound(c, err.Error())
			return nil, false
		}
		InternalError(c, err.Error())
		return nil, false
	}
	return run, true
}
