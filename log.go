package rootcanvas

import (
	"os"

	"github.com/charmbracelet/log"
)

// Default logger: warnings only, stderr. Degradations (missing extensions,
// fallback topologies) surface here instead of as errors.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "rootcanvas",
	Level:  log.WarnLevel,
})

// SetLogger replaces the library logger. Call before Open; a Wallpaper hands
// the logger to its session at open time.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}
