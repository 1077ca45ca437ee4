package engine

import "time"

// Config хранит параметры запуска сессии
type Config struct {
	// Federation и Federate - имена для подключения. Пустая федерация
	// означает, что сессия работает без подключения (инспекция, replay).
	Federation string
	Federate   string

	// Tick - период TICK_LOCAL. Каждый тик отдаёт RTI накопленные обратные вызовы.
	Tick time.Duration

	// DDM включает подписку по регионам.
	DDM bool

	// LogLimit - сколько последних записей журнала событий держать в памяти.
	LogLimit int
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	return Config{
		Federate: "hla-gateway",
		Tick:     50 * time.Millisecond,
		LogLimit: 200,
	}
}
