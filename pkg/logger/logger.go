package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего шлюза.
var Log *logrus.Logger

// Init инициализирует глобальный логгер.
// Вызывается один раз при старте процесса (cmd/hlagw) и в TestMain пакетов.
func Init() {
	Log = logrus.New()

	// 1. Уровень логирования из окружения. По умолчанию - "info".
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	SetLevel(logLevel)

	// 2. Форматтер: "json" для сбора логов, "text" для разработки.
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	// 3. Логи пишутся в stdout, если не переопределено через SetOutput.
	Log.SetOutput(os.Stdout)
}

// SetLevel меняет уровень логирования. Нераспознанный уровень сбрасывается в info.
func SetLevel(name string) {
	ensure()
	level, err := logrus.ParseLevel(name)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
}

// SetOutput перенаправляет вывод логгера (CLI-команды пишут данные в stdout, а логи - в stderr).
func SetOutput(w io.Writer) {
	ensure()
	Log.SetOutput(w)
}

// For возвращает запись логгера с полем component.
func For(component string) *logrus.Entry {
	ensure()
	return Log.WithField("component", component)
}

func ensure() {
	if Log == nil {
		Init()
	}
}
