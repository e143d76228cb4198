package dump

// ANSI escape sequences used to colorize trace output. Reset must be
// written before the process exits so the terminal is left usable.
const Reset = "\x1b[0m"

var colors = map[string]string{
	"black":   "\x1b[30m",
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
	"none":    "",
}

// Color returns the escape sequence for a color name, or the empty
// string for unknown names (output stays uncolored).
func Color(name string) string {
	return colors[name]
}
