package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/grading"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSubjects   = errors.New("暂无科目可导出")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
//   - 成绩导出为 Excel (.xlsx)：「成绩明细」与「汇总」两个 Sheet
//   - 提醒导出为 iCalendar (.ics)：每条提醒一个全天事件
//
// 返回内容与建议文件名，由 Handler 层设置响应头
type ExportService interface {
	ExportGrades(ctx context.Context) (*bytes.Buffer, string, error)
	ExportReminders(ctx context.Context) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportGrades — 成绩导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 成绩明细：| 科目 | 类型 | 分值 |，每个科目末尾追加一行均值
// 汇总：    | 科目 | 成绩数 | 平均分 |

func (s *exportService) ExportGrades(ctx context.Context) (*bytes.Buffer, string, error) {
	subjects, err := s.repo.Subject.List(ctx)
	if err != nil {
		s.logger.Error("查询科目失败", zap.Error(err))
		return nil, "", err
	}
	if len(subjects) == 0 {
		return nil, "", ErrExportNoSubjects
	}

	f := excelize.NewFile()
	defer f.Close()

	const detailSheet = "成绩明细"
	const summarySheet = "汇总"

	idx, _ := f.NewSheet(detailSheet)
	f.SetActiveSheet(idx)
	f.NewSheet(summarySheet)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1CB0F6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	averageStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: 2, // 0.00
	})

	// ── 成绩明细 ──
	f.SetColWidth(detailSheet, "A", "A", 24)
	f.SetColWidth(detailSheet, "B", "B", 20)
	f.SetColWidth(detailSheet, "C", "C", 10)
	f.SetCellValue(detailSheet, "A1", "科目")
	f.SetCellValue(detailSheet, "B1", "类型")
	f.SetCellValue(detailSheet, "C1", "分值")
	f.SetCellStyle(detailSheet, "A1", "C1", headerStyle)

	row := 2
	for _, subj := range subjects {
		for _, g := range subj.Grades {
			f.SetCellValue(detailSheet, cell("A", row), subj.Name)
			f.SetCellValue(detailSheet, cell("B", row), g.Label)
			f.SetCellValue(detailSheet, cell("C", row), g.Value)
			row++
		}
		f.SetCellValue(detailSheet, cell("A", row), subj.Name)
		f.SetCellValue(detailSheet, cell("B", row), "平均分")
		f.SetCellValue(detailSheet, cell("C", row), grading.Average(subj.Grades))
		f.SetCellStyle(detailSheet, cell("A", row), cell("C", row), averageStyle)
		row++
	}

	// ── 汇总 ──
	f.SetColWidth(summarySheet, "A", "A", 24)
	f.SetColWidth(summarySheet, "B", "C", 12)
	f.SetCellValue(summarySheet, "A1", "科目")
	f.SetCellValue(summarySheet, "B1", "成绩数")
	f.SetCellValue(summarySheet, "C1", "平均分")
	f.SetCellStyle(summarySheet, "A1", "C1", headerStyle)

	for i, subj := range subjects {
		r := i + 2
		f.SetCellValue(summarySheet, cell("A", r), subj.Name)
		f.SetCellValue(summarySheet, cell("B", r), len(subj.Grades))
		f.SetCellValue(summarySheet, cell("C", r), grading.Average(subj.Grades))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("grades_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportReminders — 提醒导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 日期无法解析的提醒跳过并记录日志，已完成的提醒标记 STATUS:COMPLETED

func (s *exportService) ExportReminders(ctx context.Context) ([]byte, string, error) {
	reminders, err := s.repo.Reminder.List(ctx)
	if err != nil {
		s.logger.Error("查询提醒失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Freya//Reminders//ES")
	cal.SetXWRCalName("Freya")

	stamp := s.now().UTC()
	for _, r := range reminders {
		day, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			s.logger.Warn("提醒日期无法解析，跳过导出",
				zap.String("reminder_id", r.ReminderID),
				zap.String("date", r.Date),
			)
			continue
		}

		event := cal.AddEvent(r.ReminderID + "@freya")
		event.SetDtStampTime(stamp)
		event.SetSummary(r.Title)
		event.SetDescription(r.Description)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		if r.Completed {
			event.SetStatus(ics.ObjectStatusCompleted)
		} else {
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	return []byte(cal.Serialize()), "reminders.ics", nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
