package cli

import "strings"

// reorderArgs moves flag arguments before positional arguments so that
// Go's flag package (which stops at the first non-flag) parses them all.
// It handles "-flag value", "--flag value", "-flag=value", and "--flag=value".
// Names in boolFlags take no value; any other flag is assumed to consume the
// next argument as its value.
func reorderArgs(args []string, boolFlags map[string]bool) []string {
	var flags, positional []string
	i := 0
	for i < len(args) {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			name := strings.TrimLeft(arg, "-")
			switch {
			case strings.Contains(arg, "="):
				// -flag=value or --flag=value
				flags = append(flags, arg)
				i++
			case boolFlags[name]:
				flags = append(flags, arg)
				i++
			case i+1 < len(args):
				// -flag value or --flag value
				flags = append(flags, arg, args[i+1])
				i += 2
			default:
				// trailing flag with no value — pass through, flag.Parse will error
				flags = append(flags, arg)
				i++
			}
		} else {
			positional = append(positional, arg)
			i++
		}
	}
	return append(flags, positional...)
}
