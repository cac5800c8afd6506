package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/challan-admin/challan-admin/internal/records"
	"github.com/challan-admin/challan-admin/internal/users"
	"github.com/challan-admin/challan-admin/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func footer(page, total, shown int) string {
	return footerStyle.Render(fmt.Sprintf("page %d of %d, %d shown", page, total, shown))
}

func renderUsers(out pageOutput[users.User]) string {
	if len(out.Items) == 0 {
		return "No users found"
	}
	t := newTable("ID", "NAME", "PHONE", "TYPE", "STATUS")
	for _, u := range out.Items {
		status := "inactive"
		if u.Active {
			status = "active"
		}
		t.Row(u.ID, u.UserName, u.PhoneNumber, u.AccountType, status)
	}
	return strings.Join([]string{t.Render(), footer(out.Inputs.Page, out.TotalPages, len(out.Items))}, "\n")
}

func renderRecords(out pageOutput[records.Record]) string {
	if len(out.Items) == 0 {
		return "No records found"
	}
	t := newTable("ID", "NAME", "BUS", "AMOUNT", "PAYMENT", "STATUS", "CREATED")
	for _, r := range out.Items {
		payment := "unpaid"
		if r.IsPaid {
			payment = "paid"
		}
		status := "active"
		if r.IsDelete {
			status = "inactive"
		}
		t.Row(r.ID, r.RecordName, r.BusNumber, view.FormatAmount(r.Amount), payment, status, view.FormatDate(r.CreatedAt))
	}
	return strings.Join([]string{t.Render(), footer(out.Inputs.Page, out.TotalPages, len(out.Items))}, "\n")
}
