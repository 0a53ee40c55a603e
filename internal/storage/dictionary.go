package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteDictionary renders the Markdown data dictionary for tables. Empty
// tables are left out.
func WriteDictionary(w io.Writer, tables []Named) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# Data Dictionary\n\n")
	fmt.Fprint(bw, "Generated data dictionary for ETL processed tables.\n\n")

	for _, nt := range tables {
		t := nt.Table
		if t.Empty() {
			continue
		}
		fmt.Fprintf(bw, "## %s\n\n", nt.Name)
		fmt.Fprintf(bw, "**Rows:** %d\n", t.Len())
		fmt.Fprintf(bw, "**Columns:** %d\n\n", len(t.Columns))
		fmt.Fprint(bw, "| Column | Type | Description |\n")
		fmt.Fprint(bw, "|--------|------|-------------|\n")

		kinds := t.Kinds()
		for i, c := range t.Columns {
			fmt.Fprintf(bw, "| %s | %s | %s |\n", mdCell(c), kinds[i], mdCell(ColumnDescription(nt.Name, c)))
		}
		fmt.Fprint(bw, "\n")
	}
	return bw.Flush()
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeDictionaryFile(path string, tables []Named) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDictionary(f, tables); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
