package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/asngen/internal/ir"
)

// writeAssociationsText prints one block per association: header line,
// name, bound constraints, then members by their text form.
func writeAssociationsText(w io.Writer, asns []*ir.Association) {
	for _, a := range asns {
		fmt.Fprintf(w, "[%d] %s  %s", a.Seq, a.Rule, a.ID)
		if a.Invalid {
			fmt.Fprint(w, "  (invalid)")
		}
		fmt.Fprintln(w)
		if a.Name != "" {
			fmt.Fprintf(w, "    name: %s\n", a.Name)
		}
		if len(a.Constraints) > 0 {
			parts := make([]string, 0, len(a.Constraints))
			for _, k := range sortedKeys(a.Constraints) {
				parts = append(parts, k+"="+a.Constraints[k])
			}
			fmt.Fprintf(w, "    constraints: %s\n", strings.Join(parts, " "))
		}
		for _, m := range a.Members {
			fmt.Fprintf(w, "    - %s\n", m.Text())
		}
		fmt.Fprintln(w)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
