package tui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/muesli/termenv"
)

// Tag renders a visual tag as its acronym on the tag color.
func Tag(tag domain.VisualTag, p termenv.Profile) string {
	return p.String(" " + tag.Acronym + " ").
		Background(p.Color(tag.Color)).
		Foreground(p.Color("#000000")).
		Bold().
		String()
}

// PrintNodeTypes lists node types grouped by category, sorted by name.
func PrintNodeTypes(w io.Writer, descs []domain.NodeTypeDescriptor, p termenv.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tTYPE\tNAME\tCATEGORY\tINPUT\tOUTPUT")
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			Tag(d.VisualTag, p), d.Name, d.DisplayName, d.Category,
			shapeFields(d.InputShape == nil, func() []string { return d.InputShape.FieldNames() }),
			shapeFields(d.OutputShape == nil, func() []string { return d.OutputShape.FieldNames() }),
		)
	}
	return tw.Flush()
}

func shapeFields(missing bool, names func() []string) string {
	if missing {
		return "(config)"
	}
	return strings.Join(names(), ",")
}
