package dimension

import (
	"fmt"
	"strings"

	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/internal/models"
)

// formatDimensionAsMarkdown formats a dimension's criteria and generated
// content as markdown for the clipboard.
func formatDimensionAsMarkdown(dim models.Dimension, criteria *models.Criteria, fn blackbox.Function, content string) string {
	var sb strings.Builder

	title := dim.Name
	if title == "" {
		title = fmt.Sprintf("Dimension %d", dim.ID)
	}
	sb.WriteString(fmt.Sprintf("# %s\n", title))
	sb.WriteString(fmt.Sprintf("**ID:** `%d` | **Function:** %s\n", dim.ID, fn.Label()))

	sb.WriteString("\n## Atelier\n\n")
	if criteria.Len() == 0 {
		sb.WriteString("_No criteria_\n")
	}
	for _, k := range criteria.Keys() {
		v, _ := criteria.Get(k)
		sb.WriteString(fmt.Sprintf("- **%s:** %s\n", k, v))
	}

	if content != "" {
		sb.WriteString("\n## Generated\n\n")
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String()
}
