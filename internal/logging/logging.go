package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

func Init() {
	mainFormatter := &logrus.TextFormatter{}
	mainFormatter.FullTimestamp = true
	mainFormatter.ForceColors = true
	mainFormatter.PadLevelText = true
	mainFormatter.TimestampFormat = "2006-01-02 15:04:05"
	logrus.SetFormatter(mainFormatter)
}

// SetLevel accepts DEBUG, INFO, WARNING or ERROR in any case.
func SetLevel(name string) error {
	switch strings.ToUpper(name) {
	case "DEBUG":
		logrus.SetLevel(logrus.DebugLevel)
	case "INFO":
		logrus.SetLevel(logrus.InfoLevel)
	case "WARNING":
		logrus.SetLevel(logrus.WarnLevel)
	case "ERROR":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("invalid log level provided: %s", name)
	}
	return nil
}
