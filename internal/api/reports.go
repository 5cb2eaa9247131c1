package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ai-risk-eval/backend/internal/catalog"
	"ai-risk-eval/backend/internal/modelcard"
	"ai-risk-eval/backend/internal/report"
	"ai-risk-eval/backend/internal/scoring"
	"ai-risk-eval/backend/internal/store"
	"ai-risk-eval/backend/internal/util"
)

const (
	llmOverlay      = "llm"
	maxPageSize     = 100
	maxPage         = 10000
	defaultPageSize = 25
)

func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, http.StatusBadRequest, err)
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	name := strings.TrimSpace(req.Name)
	provided := req.Capabilities
	if strings.TrimSpace(req.ModelCard) != "" {
		card := modelcard.Parse(req.ModelCard)
		provided = modelcard.Merge(card.Capabilities(s.wantsLLM(req)), req.Capabilities)
		if strings.TrimSpace(description) == "" {
			description = card.Purpose
		}
		if name == "" {
			name = card.Name
		}
	} else if req.Description == nil {
		renderError(c, http.StatusBadRequest, errors.New("description is required"))
		return
	}

	timer := util.StartTimer()
	result := s.engine.Evaluate(description, provided, req.Flags)

	row, err := s.storeReport(c, name, description, result, timer)
	if err != nil {
		// The analysis is still returned; only the stored copy is missing.
		logrus.WithError(err).WithField("category", result.Category).Error("persist report")
		c.JSON(http.StatusOK, CheckResponse{Analysis: result})
		return
	}

	logrus.WithFields(logrus.Fields{
		"report_id": row.ID,
		"category":  row.Category,
		"score":     row.Score,
		"owned":     row.UserID != nil,
	}).Info("report stored")

	s.notifier.Broadcast(ReportEvent{
		Type:            "report",
		ReportID:        row.ID,
		Name:            row.Name,
		RiskCategory:    row.Category,
		RiskScore:       row.Score,
		ComplianceScore: row.ComplianceScore,
		Timestamp:       row.CreatedAt,
	})

	c.JSON(http.StatusOK, CheckResponse{
		ReportID:    row.ID,
		Analysis:    result,
		DownloadURL: downloadURL(row.ID),
		Persisted:   true,
	})
}

func (s *Server) storeReport(c *gin.Context, name, description string, result scoring.EvaluationResult, timer util.Timer) (*store.Report, error) {
	digest, err := result.Digest()
	if err != nil {
		return nil, err
	}
	row := &store.Report{
		Name:             name,
		Description:      description,
		Category:         string(result.Category),
		Score:            result.Score,
		ComplianceScore:  result.ComplianceScore,
		Digest:           digest,
		CatalogVersion:   s.engine.Catalog().Version(),
		ProcessingTimeMs: timer.ElapsedMs(),
		CreatedAt:        s.now().UTC(),
	}
	if userID, ok := currentUser(c); ok {
		row.UserID = &userID
	}
	if err := row.SetResult(result); err != nil {
		return nil, err
	}
	if err := s.db.SaveReport(row); err != nil {
		return nil, err
	}
	return row, nil
}

// wantsLLM reports whether the request activates the llm overlay, through
// any of its catalog flags or a capability of the same name.
func (s *Server) wantsLLM(req CheckRequest) bool {
	aliases := s.engine.Catalog().OverlayFlags(llmOverlay)
	if len(aliases) == 0 {
		aliases = []string{llmOverlay, "is_llm"}
	}
	for _, alias := range aliases {
		if req.Capabilities[alias] {
			return true
		}
		for _, f := range req.Flags {
			if catalog.NormalizeFlag(f) == alias {
				return true
			}
		}
	}
	return false
}

func (s *Server) handleListReports(c *gin.Context) {
	userID, _ := currentUser(c)
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	if page > maxPage {
		page = maxPage
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	rows, total, err := s.db.ListReportsForUser(userID, page*pageSize, pageSize)
	if err != nil {
		renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := ReportFromModel(row, false)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		dtos = append(dtos, dto)
	}
	c.JSON(http.StatusOK, ReportsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetReport(c *gin.Context) {
	userID, _ := currentUser(c)
	id := c.Param("id")
	row, err := s.db.GetReport(id)
	if err == nil && !row.OwnedBy(userID) {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			renderError(c, http.StatusNotFound, fmt.Errorf("report %s not found", id))
		} else {
			renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	dto, err := ReportFromModel(*row, true)
	if err != nil {
		renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")
	row, err := s.db.GetReport(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			renderError(c, http.StatusNotFound, fmt.Errorf("report %s not found", id))
		} else {
			renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	var result scoring.EvaluationResult
	if err := row.Result(&result); err != nil {
		renderError(c, http.StatusInternalServerError, fmt.Errorf("decode report %s: %w", id, err))
		return
	}
	body := report.Render(report.Input{
		Name:        row.Name,
		Description: row.Description,
		Result:      result,
		GeneratedAt: row.CreatedAt,
	})
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(row.Name)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}
