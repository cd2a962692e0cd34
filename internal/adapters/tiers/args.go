package tiers

import "strings"

// StripArgs returns a copy of args without the named value flags. Both the
// "--name value" and "--name=value" forms are removed.
func StripArgs(args []string, names ...string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if matchesFlag(arg, names) {
			i++
			continue
		}
		if hasInlineValue(arg, names) {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func matchesFlag(arg string, names []string) bool {
	for _, name := range names {
		if arg == name {
			return true
		}
	}
	return false
}

func hasInlineValue(arg string, names []string) bool {
	for _, name := range names {
		if strings.HasPrefix(name, "--") && strings.HasPrefix(arg, name+"=") {
			return true
		}
	}
	return false
}
