package report

import (
	"strconv"

	"accesslens/internal/analysis"

	"github.com/pterm/pterm"
)

// PrintSummary renders the category counts and the list of exported files
func PrintSummary(summary *analysis.Summary, files []string) error {
	data := pterm.TableData{{"Category", "Requests"}}
	for _, c := range summary.Categories {
		data = append(data, []string{c.Value, strconv.FormatInt(c.Total, 10)})
	}

	pterm.DefaultSection.Println("Requests per category")
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	items := make([]pterm.BulletListItem, 0, len(files))
	for _, f := range files {
		items = append(items, pterm.BulletListItem{Level: 0, Text: f})
	}

	pterm.Success.Println("Analysis complete. Exported files:")
	return pterm.DefaultBulletList.WithItems(items).Render()
}
