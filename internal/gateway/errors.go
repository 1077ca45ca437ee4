package gateway

import "errors"

var (
	// ErrConfiguration - ошибка регистрации маппингов: дубликаты, неоднозначность,
	// удаление незарегистрированного.
	ErrConfiguration = errors.New("configuration error")
	// ErrIllegalState - операция в неподходящем состоянии подключения.
	ErrIllegalState = errors.New("illegal state")
)
