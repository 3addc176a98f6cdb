// Package logging configures the process-wide logrus logger the way the
// simulator binaries expect it: JSON lines with microsecond timestamps,
// optionally into a rotating file so long simulation runs do not fill the
// disk. Library code never calls Setup; embedders are free to configure
// logrus however they like and still capture all drone logs.
package logging

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points logrus at stdout or, when file is non-empty, at a rotating
// log file (rotated daily, ten files kept).
func Setup(level string, file string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.JSONFormatter{
		TimestampFormat: time.StampMicro,
	})
	if file == "" {
		log.SetOutput(os.Stdout)
		return nil
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   file,
		MaxAge:     1,
		MaxBackups: 10,
	})
	return nil
}
