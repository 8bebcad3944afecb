package agent

import (
	"github.com/sirupsen/logrus"
	"runagent/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}
