package commands

import "github.com/systmms/rotatefn/internal/logging"

// Options carries the state shared by all commands, populated by the
// root command's PersistentPreRun.
type Options struct {
	Logger *logging.Logger
	Debug  bool
}
