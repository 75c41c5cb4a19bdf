package links

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	reportBodyStyle  = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)
)

// RenderReport formats the merged link records as a readable table for the
// end-of-run summary.
func RenderReport(records []Record) string {
	if len(records) == 0 {
		return ""
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Post ID\tPost URL\tLink URL")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.PostSeq, rec.PostURL, rec.LinkURL)
	}
	w.Flush()

	return reportTitleStyle.Render("All links from posts") + "\n" +
		reportBodyStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
