// Package logging sets up the structured logrus logger every other package
// logs through. The teacher calls log.Printf directly; this server follows
// orbas1-Synnergy's lead (see SPEC_FULL.md) and uses logrus fields instead
// of interpolated strings, keeping the teacher's terse one-line-per-event
// texture.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the server's logger. colour enables ANSI output; the caller
// passes false when the -C flag is given.
func New(colour bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   !colour,
		TimestampFormat: "15:04:05",
	})
	return l
}
