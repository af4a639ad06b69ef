package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"sklandapi/core"
	"sklandapi/utils"
)

const ReportTitle = "森空岛签到报告"

// statusText renders one result as shown in every report.
func statusText(r utils.SignInResult) (string, string) {
	switch {
	case r.Success:
		if len(r.Awards) == 0 {
			return "成功", ""
		}
		return "成功", strings.Join(r.Awards, ", ")
	case r.AlreadySigned():
		return "已签", ""
	default:
		return "失败", r.Error
	}
}

// RenderReport builds the plain-text report sent to notification channels.
func RenderReport(reports []core.AccountReport) string {
	lines := []string{ReportTitle, ""}

	for _, report := range reports {
		lines = append(lines, fmt.Sprintf("[%d] %s", report.Index, report.Name))

		switch {
		case report.Error != "":
			lines = append(lines, "  错误: "+report.Error)
		case len(report.Results) == 0:
			lines = append(lines, "  未找到绑定角色")
		default:
			for _, r := range report.Results {
				status, detail := statusText(r)
				line := fmt.Sprintf("  %s: %s", r.Game, status)
				if detail != "" {
					line += fmt.Sprintf(" (%s)", detail)
				}
				lines = append(lines, line)
			}
		}
		lines = append(lines, "")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// PrintConsole writes the report framed by rules of '='.
func PrintConsole(out io.Writer, text string) {
	rule := strings.Repeat("=", 40)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n\n", rule, text, rule)
}

// RenderTable writes one row per result.
func RenderTable(out io.Writer, reports []core.AccountReport) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(ReportTitle)
	t.AppendHeader(table.Row{"#", "Account", "Game", "Role", "Channel", "Status", "Detail"})

	for _, report := range reports {
		if report.Error != "" {
			t.AppendRow(table.Row{report.Index, report.Name, "-", "-", "-", "错误", report.Error})
			continue
		}
		if len(report.Results) == 0 {
			t.AppendRow(table.Row{report.Index, report.Name, "-", "-", "-", "未找到绑定角色", ""})
			continue
		}
		for _, r := range report.Results {
			status, detail := statusText(r)
			t.AppendRow(table.Row{report.Index, report.Name, r.Game, r.Nickname, r.Channel, status, detail})
		}
	}
	t.Render()
}
