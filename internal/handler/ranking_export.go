package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/service"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// rankingTable - рейтинг, разложенный в строки для CSV и Excel
type rankingTable struct {
	header []string
	rows   [][]interface{}
}

// columnLabel переводит номер колонки (с 1) в буквенную метку: 1 -> A, 27 -> AA
func columnLabel(n int) string {
	label := ""
	for n > 0 {
		n--
		label = string(rune('A'+n%26)) + label
		n /= 26
	}
	return label
}

// formatDuration выводит секунды как H:MM:SS
func formatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func rowUser(row ranking.RankedRow) *entity.User {
	if row.ACM != nil {
		return row.ACM.User
	}
	if row.OI != nil {
		return row.OI.User
	}
	return nil
}

// buildRankingTable строит таблицу выгрузки. Для ACM колонка задачи содержит время AC
// и число неверных попыток, для OI - балл.
func buildRankingTable(export *service.RankingExport) rankingTable {
	isACM := export.Contest.RuleType == entity.RuleTypeACM

	header := []string{"Rank", "Username", "Real Name", "Submissions"}
	if isACM {
		header = append(header, "Accepted", "Total Time", "Violations", "Review Penalty")
	} else {
		header = append(header, "Total Score", "Violations", "Penalty Points")
	}
	for i := range export.Problems {
		header = append(header, columnLabel(i+1))
	}

	table := rankingTable{header: header}
	for _, row := range export.Ranking.Rows {
		username, realName := "", ""
		if u := rowUser(row); u != nil {
			username, realName = u.Username, u.RealName
		}
		cells := []interface{}{row.Rank, sanitizeForExcel(username), sanitizeForExcel(realName)}

		if isACM && row.ACM != nil {
			review := "No"
			if row.Annotation.ReviewPenaltyApplied {
				review = "Yes"
			}
			cells = append(cells, row.ACM.SubmissionNumber, row.ACM.AcceptedNumber,
				formatDuration(row.ACM.TotalTime), row.Annotation.ViolationCount, review)
			for _, p := range export.Problems {
				cells = append(cells, acmProblemCell(row.ACM.SubmissionInfo[p.ID]))
			}
		} else if row.OI != nil {
			cells = append(cells, row.OI.SubmissionNumber, row.OI.TotalScore,
				row.Annotation.ViolationCount, row.Annotation.PenaltyPoints)
			for _, p := range export.Problems {
				cells = append(cells, row.OI.SubmissionInfo[p.ID])
			}
		}
		table.rows = append(table.rows, cells)
	}
	return table
}

func acmProblemCell(info entity.ACMProblemInfo) string {
	switch {
	case info.IsAC && info.ErrorNumber > 0:
		return fmt.Sprintf("%s (-%d)", formatDuration(info.ACTime), info.ErrorNumber)
	case info.IsAC:
		return formatDuration(info.ACTime)
	case info.ErrorNumber > 0:
		return fmt.Sprintf("(-%d)", info.ErrorNumber)
	}
	return ""
}

// exportCSV пишет таблицу в CSV
func (h *RankingHandler) exportCSV(c *gin.Context, table rankingTable, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(table.header)
	for _, row := range table.rows {
		record := make([]string, len(row))
		for i, v := range row {
			switch val := v.(type) {
			case string:
				record[i] = val
			case int:
				record[i] = strconv.Itoa(val)
			default:
				record[i] = fmt.Sprint(val)
			}
		}
		writer.Write(record)
	}
}

// exportXLSX пишет таблицу в Excel через StreamWriter
func (h *RankingHandler) exportXLSX(c *gin.Context, table rankingTable, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Ranking"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.logger.Error("Failed to create StreamWriter", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(table.header))
	for i, v := range table.header {
		headers[i] = v
	}
	if err := sw.SetRow("A1", headers); err != nil {
		h.logger.Warn("Failed to write header row", zap.Error(err))
	}
	for i, row := range table.rows {
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			h.logger.Warn("Failed to write row", zap.Int("row", i+2), zap.Error(err))
		}
	}
	if err := sw.Flush(); err != nil {
		h.logger.Error("Failed to flush StreamWriter", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to write Excel response", zap.Error(err))
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
