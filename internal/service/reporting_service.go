package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
	"github.com/noah-isme/hr-rewards-api/pkg/export"
	"github.com/noah-isme/hr-rewards-api/pkg/storage"
)

type reportRecordReader interface {
	ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.RewardRecord, error)
	ListForMonth(ctx context.Context, tenantID string, year, month int) ([]models.RewardRecord, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]models.RewardRecord, error)
}

type reportEmployeeReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error)
	ListActiveWithNumber(ctx context.Context, tenantID string) ([]models.Employee, error)
}

type reportKudosReader interface {
	CountForMonth(ctx context.Context, tenantID string, month, year int) (int, error)
	SumPointsByReceiver(ctx context.Context, tenantID, receiverID string) (int, error)
}

// ReportExport describes a rendered report file and its signed download URL.
type ReportExport struct {
	ExportID    string    `json:"export_id"`
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReportingService aggregates reward records into reports. Reports are
// cached per tenant with a short TTL; staleness is bounded by that TTL.
type ReportingService struct {
	records   reportRecordReader
	employees reportEmployeeReader
	kudos     reportKudosReader
	cache     *CacheService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	files     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
}

// NewReportingService constructs the service.
func NewReportingService(
	records reportRecordReader,
	employees reportEmployeeReader,
	kudos reportKudosReader,
	cache *CacheService,
	files *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	logger *zap.Logger,
) *ReportingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportingService{
		records:   records,
		employees: employees,
		kudos:     kudos,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		files:     files,
		signer:    signer,
		logger:    logger,
	}
}

// MonthlyReport builds the month rollup. The boolean reports a cache hit.
func (s *ReportingService) MonthlyReport(ctx context.Context, tenantID string, month, year int) (*models.MonthlyRewardReport, bool, error) {
	if month < 1 || month > 12 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 2000 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}

	cacheKey := fmt.Sprintf("reports:monthly:%s:%04d-%02d", tenantID, year, month)
	var cached models.MonthlyRewardReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	records, err := s.records.ListForMonth(ctx, tenantID, year, month)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reward records")
	}

	departments, err := s.departmentIndex(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}

	report := &models.MonthlyRewardReport{
		Month:       month,
		Year:        year,
		TotalValue:  decimal.Zero,
		GeneratedAt: time.Now().UTC(),
	}
	byCategory := map[models.RewardCategory]*models.CategoryBreakdown{}
	byDepartment := map[string]*models.DepartmentBreakdown{}

	for _, record := range records {
		report.TotalCount++
		switch record.Status {
		case models.StatusApproved, models.StatusApplied:
			report.ApprovedCount++
		case models.StatusPending:
			report.PendingCount++
		}

		var value decimal.Decimal
		if record.CountsTowardCost() {
			value = record.CalculatedValue
			report.TotalValue = report.TotalValue.Add(value)
		}

		cat, ok := byCategory[record.RewardCategory]
		if !ok {
			cat = &models.CategoryBreakdown{Category: record.RewardCategory}
			byCategory[record.RewardCategory] = cat
		}
		cat.Count++
		cat.Value = cat.Value.Add(value)

		department := departments[record.EmployeeID]
		if department == "" {
			department = "UNKNOWN"
		}
		dep, ok := byDepartment[department]
		if !ok {
			dep = &models.DepartmentBreakdown{Department: department}
			byDepartment[department] = dep
		}
		dep.Count++
		dep.Value = dep.Value.Add(value)
	}

	report.ByCategory = make([]models.CategoryBreakdown, 0, len(byCategory))
	for _, row := range byCategory {
		report.ByCategory = append(report.ByCategory, *row)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		if !report.ByCategory[i].Value.Equal(report.ByCategory[j].Value) {
			return report.ByCategory[i].Value.GreaterThan(report.ByCategory[j].Value)
		}
		return report.ByCategory[i].Category < report.ByCategory[j].Category
	})

	report.ByDepartment = make([]models.DepartmentBreakdown, 0, len(byDepartment))
	for _, row := range byDepartment {
		report.ByDepartment = append(report.ByDepartment, *row)
	}
	sort.Slice(report.ByDepartment, func(i, j int) bool {
		if !report.ByDepartment[i].Value.Equal(report.ByDepartment[j].Value) {
			return report.ByDepartment[i].Value.GreaterThan(report.ByDepartment[j].Value)
		}
		return report.ByDepartment[i].Department < report.ByDepartment[j].Department
	})

	kudosCount, err := s.kudos.CountForMonth(ctx, tenantID, month, year)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count kudos")
	}
	report.KudosCount = kudosCount

	_ = s.cache.Set(ctx, cacheKey, report, 0)
	return report, false, nil
}

// CostAnalysis builds the spend rollup over an arbitrary date range.
func (s *ReportingService) CostAnalysis(ctx context.Context, tenantID string, from, to time.Time) (*models.CostAnalysis, bool, error) {
	if to.Before(from) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}

	cacheKey := fmt.Sprintf("reports:cost:%s:%s:%s", tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached models.CostAnalysis
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	records, err := s.records.ListForPeriod(ctx, tenantID, from, to)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reward records")
	}

	analysis := &models.CostAnalysis{
		From:        from,
		To:          to,
		TotalCost:   decimal.Zero,
		GeneratedAt: time.Now().UTC(),
	}
	byReward := map[string]*models.RewardCostRow{}
	byMonth := map[string]decimal.Decimal{}

	for _, record := range records {
		if !record.CountsTowardCost() {
			continue
		}
		analysis.TotalCost = analysis.TotalCost.Add(record.CalculatedValue)

		row, ok := byReward[record.RewardName]
		if !ok {
			row = &models.RewardCostRow{RewardName: record.RewardName}
			byReward[record.RewardName] = row
		}
		row.Count++
		row.Cost = row.Cost.Add(record.CalculatedValue)

		bucket := fmt.Sprintf("%04d-%02d", record.AppliedYear, record.AppliedMonth)
		byMonth[bucket] = byMonth[bucket].Add(record.CalculatedValue)
	}

	analysis.CostByReward = make([]models.RewardCostRow, 0, len(byReward))
	for _, row := range byReward {
		analysis.CostByReward = append(analysis.CostByReward, *row)
	}
	sort.Slice(analysis.CostByReward, func(i, j int) bool {
		if !analysis.CostByReward[i].Cost.Equal(analysis.CostByReward[j].Cost) {
			return analysis.CostByReward[i].Cost.GreaterThan(analysis.CostByReward[j].Cost)
		}
		return analysis.CostByReward[i].RewardName < analysis.CostByReward[j].RewardName
	})

	analysis.MonthlyTrend = make([]models.MonthlyCostRow, 0, len(byMonth))
	for month, cost := range byMonth {
		analysis.MonthlyTrend = append(analysis.MonthlyTrend, models.MonthlyCostRow{Month: month, Cost: cost})
	}
	sort.Slice(analysis.MonthlyTrend, func(i, j int) bool {
		return analysis.MonthlyTrend[i].Month < analysis.MonthlyTrend[j].Month
	})

	_ = s.cache.Set(ctx, cacheKey, analysis, 0)
	return analysis, false, nil
}

// EmployeeHistory lists one employee's records with lifetime totals.
func (s *ReportingService) EmployeeHistory(ctx context.Context, tenantID, employeeID string) (*models.EmployeeRewardHistory, error) {
	if _, err := s.employees.FindByID(ctx, tenantID, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	records, err := s.records.ListByEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reward records")
	}

	history := &models.EmployeeRewardHistory{
		EmployeeID:  employeeID,
		Records:     records,
		TotalEarned: decimal.Zero,
	}
	for _, record := range records {
		if record.CountsTowardCost() {
			history.TotalEarned = history.TotalEarned.Add(record.CalculatedValue)
		}
	}

	points, err := s.kudos.SumPointsByReceiver(ctx, tenantID, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum kudos points")
	}
	history.KudosPoints = points
	return history, nil
}

// ExportMonthly renders the month rollup to CSV or PDF, stores the file, and
// returns a signed download URL.
func (s *ReportingService) ExportMonthly(ctx context.Context, tenantID string, month, year int, format string) (*ReportExport, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report storage is not configured")
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	report, _, err := s.MonthlyReport(ctx, tenantID, month, year)
	if err != nil {
		return nil, err
	}

	dataset := monthlyReportDataset(report)
	title := fmt.Sprintf("Monthly Reward Report %04d-%02d", year, month)

	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("monthly-%s-%04d-%02d-%s.%s", tenantID, year, month, exportID, format)
	if _, err := s.files.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report file")
	}

	token, expiresAt, err := s.signer.Generate(exportID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.logger.Info("report exported",
		zap.String("tenant_id", tenantID),
		zap.String("export_id", exportID),
		zap.String("format", format))
	return &ReportExport{
		ExportID:    exportID,
		Filename:    filename,
		Format:      format,
		DownloadURL: "/api/v1/reports/download?token=" + token,
		ExpiresAt:   expiresAt,
	}, nil
}

// OpenExport validates a signed token and opens the referenced report file.
func (s *ReportingService) OpenExport(token string) (*os.File, string, error) {
	if s.files == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrInternal, "report storage is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return file, relPath, nil
}

func (s *ReportingService) departmentIndex(ctx context.Context, tenantID string) (map[string]string, error) {
	employees, err := s.employees.ListActiveWithNumber(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	index := make(map[string]string, len(employees))
	for _, employee := range employees {
		if employee.Department != nil {
			index[employee.ID] = *employee.Department
		}
	}
	return index, nil
}

func monthlyReportDataset(report *models.MonthlyRewardReport) export.Dataset {
	rows := []map[string]string{
		{"Section": "SUMMARY", "Name": "Total records", "Count": strconv.Itoa(report.TotalCount), "Value": ""},
		{"Section": "SUMMARY", "Name": "Approved records", "Count": strconv.Itoa(report.ApprovedCount), "Value": ""},
		{"Section": "SUMMARY", "Name": "Pending records", "Count": strconv.Itoa(report.PendingCount), "Value": ""},
		{"Section": "SUMMARY", "Name": "Total value", "Count": "", "Value": report.TotalValue.StringFixed(2)},
		{"Section": "SUMMARY", "Name": "Kudos given", "Count": strconv.Itoa(report.KudosCount), "Value": ""},
	}
	for _, row := range report.ByCategory {
		rows = append(rows, map[string]string{
			"Section": "CATEGORY",
			"Name":    string(row.Category),
			"Count":   strconv.Itoa(row.Count),
			"Value":   row.Value.StringFixed(2),
		})
	}
	for _, row := range report.ByDepartment {
		rows = append(rows, map[string]string{
			"Section": "DEPARTMENT",
			"Name":    row.Department,
			"Count":   strconv.Itoa(row.Count),
			"Value":   row.Value.StringFixed(2),
		})
	}
	return export.Dataset{
		Headers: []string{"Section", "Name", "Count", "Value"},
		Rows:    rows,
	}
}
