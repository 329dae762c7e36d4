package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/tabungan-api/internal/models"
)

// ReportGrouping selects the granularity of class reports.
type ReportGrouping string

const (
	GroupByGrade ReportGrouping = "grade"
	GroupByClass ReportGrouping = "class"
)

// ParseReportGrouping maps a configuration value to a grouping, defaulting
// to grade-level groups.
func ParseReportGrouping(raw string) ReportGrouping {
	if ReportGrouping(strings.ToLower(strings.TrimSpace(raw))) == GroupByClass {
		return GroupByClass
	}
	return GroupByGrade
}

// GroupKey returns the report group a student belongs to.
func GroupKey(student models.Student, grouping ReportGrouping) string {
	if grouping == GroupByClass {
		return student.ClassLabel
	}
	return strconv.Itoa(student.Grade)
}

// saturatingAdd clamps report totals to the int64 range.
func saturatingAdd(a, b int64) int64 {
	if sum, ok := models.AddAmount(a, b); ok {
		return sum
	}
	if b > 0 {
		return math.MaxInt64
	}
	return math.MinInt64
}

type reportGroup struct {
	report  models.ClassReport
	members map[string]*models.StudentReportRow
	classes map[string]struct{}
}

func aggregate(students []models.Student, txns []models.Transaction, grouping ReportGrouping) []*reportGroup {
	groups := make(map[string]*reportGroup)
	memberOf := make(map[string]*reportGroup, len(students))

	for _, student := range students {
		key := GroupKey(student, grouping)
		group, ok := groups[key]
		if !ok {
			group = &reportGroup{
				report:  models.ClassReport{ClassLabel: key, Grade: student.Grade},
				members: make(map[string]*models.StudentReportRow),
				classes: make(map[string]struct{}),
			}
			groups[key] = group
		}
		group.report.TotalStudents++
		group.report.TotalBalance = saturatingAdd(group.report.TotalBalance, student.Balance)
		group.classes[student.ClassLabel] = struct{}{}
		group.members[student.ID] = &models.StudentReportRow{
			StudentID:  student.ID,
			NIS:        student.NIS,
			Name:       student.Name,
			ClassLabel: student.ClassLabel,
			Balance:    student.Balance,
		}
		memberOf[student.ID] = group
	}

	for _, txn := range txns {
		group, ok := memberOf[txn.StudentID]
		if !ok {
			continue
		}
		row := group.members[txn.StudentID]
		switch txn.Type {
		case models.TransactionDeposit:
			group.report.TotalDeposits = saturatingAdd(group.report.TotalDeposits, txn.Amount)
			row.TotalDeposits = saturatingAdd(row.TotalDeposits, txn.Amount)
		case models.TransactionWithdrawal:
			group.report.TotalWithdrawals = saturatingAdd(group.report.TotalWithdrawals, txn.Amount)
			row.TotalWithdrawals = saturatingAdd(row.TotalWithdrawals, txn.Amount)
		}
	}

	ordered := make([]*reportGroup, 0, len(groups))
	for _, group := range groups {
		classes := make([]string, 0, len(group.classes))
		for class := range group.classes {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		group.report.Classes = classes
		ordered = append(ordered, group)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].report, ordered[j].report
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		return a.ClassLabel < b.ClassLabel
	})
	return ordered
}

// ComputeClassReports groups students and totals their balances, deposits
// and withdrawals. Groups without students are omitted and the result is
// ordered by grade, then label. Transactions of unknown students are ignored.
func ComputeClassReports(students []models.Student, txns []models.Transaction, grouping ReportGrouping) []models.ClassReport {
	groups := aggregate(students, txns, grouping)
	reports := make([]models.ClassReport, 0, len(groups))
	for _, group := range groups {
		reports = append(reports, group.report)
	}
	return reports
}

// ComputeClassDetail returns the report of one group with its student rows
// ordered by class label, then name.
func ComputeClassDetail(students []models.Student, txns []models.Transaction, grouping ReportGrouping, key string) (*models.ClassReportDetail, bool) {
	if grouping == GroupByClass {
		key = models.NormalizeClassLabel(key)
	} else {
		key = strings.TrimSpace(key)
	}
	for _, group := range aggregate(students, txns, grouping) {
		if group.report.ClassLabel != key {
			continue
		}
		rows := make([]models.StudentReportRow, 0, len(group.members))
		for _, row := range group.members {
			rows = append(rows, *row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].ClassLabel != rows[j].ClassLabel {
				return rows[i].ClassLabel < rows[j].ClassLabel
			}
			return rows[i].Name < rows[j].Name
		})
		return &models.ClassReportDetail{ClassReport: group.report, Students: rows}, true
	}
	return nil, false
}
