package banner

import (
	"fmt"
	"io"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/config"
)

const banner = `
 ___ __  __ ___ ___ ___    ___ ___ _  _
| __|  \/  | _ ) __|   \  / __| __| \| |
| _|| |\/| | _ \ _|| |) || (_ | _|| .' |
|___|_|  |_|___/___|___/  \___|___|_|\_|
`

// Print writes the startup banner and the effective config to w.
func Print(w io.Writer, eff config.EffectiveConfigResult, version string) {
	fmt.Fprint(w, banner)
	if version != "" {
		fmt.Fprintf(w, "version %s\n", version)
	}
	fmt.Fprintln(w)
	for _, line := range eff.Summary() {
		fmt.Fprintln(w, "- "+line)
	}
	fmt.Fprintln(w)
}
