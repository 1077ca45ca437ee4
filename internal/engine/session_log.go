package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"hla-gateway/pkg/api"
	"hla-gateway/pkg/logger"
)

// AddLog добавляет запись в журнал событий сессии. Старые записи
// вытесняются после LogLimit.
func (s *Session) AddLog(text, logType string) {
	s.Logs = append(s.Logs, api.LogEntry{
		ID:        fmt.Sprintf("%d_%d", s.CurrentTick, time.Now().UnixNano()),
		Text:      text,
		Type:      logType,
		Timestamp: time.Now().UnixMilli(),
	})
	if over := len(s.Logs) - s.cfg.LogLimit; over > 0 {
		s.Logs = append(s.Logs[:0:0], s.Logs[over:]...)
	}
	logger.Log.WithFields(logrus.Fields{
		"tick":      s.CurrentTick,
		"component": "session_log",
		"log_type":  logType,
	}).Info(text)
}
