// Package flagx lets several components share one command line: each picks
// out the flags it owns and parses only those.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// ConfigFlags are the spellings accepted for the config file path.
var ConfigFlags = []string{"-c", "-config", "--config"}

// FilterArgs keeps the arguments naming one of allowed, in "-f value" or
// "-f=value" form, and drops everything else. A token starting with "-" is
// never consumed as a value.
func FilterArgs(args []string, allowed []string) []string {
	owned := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		owned[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, _, inline := strings.Cut(args[i], "=")
		if !strings.HasPrefix(name, "-") || !owned[name] {
			continue
		}
		out = append(out, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// ConfigFile returns the config file path given in args with any of
// ConfigFlags, or "" when none is present. The last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFlags))

	return path
}
