package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// EntityIdentifier - RPR идентификатор сущности в федерации.
//
// Формат битов (младшие 48 бит):
//
//	[ Site (16) | Application (16) | Entity (16) ]
//
// Site и Application задают федерата-владельца, Entity - номер объекта у него.
type EntityIdentifier uint64

// NilEntityIdentifier - отсутствующий идентификатор.
const NilEntityIdentifier EntityIdentifier = 0

// EntityIdentifierEncodedLength - размер закодированного идентификатора в байтах.
const EntityIdentifierEncodedLength = 6

const (
	shiftEntity = 0
	shiftApp    = 16
	shiftSite   = 32
)

// NewEntityIdentifier собирает идентификатор из составных частей.
func NewEntityIdentifier(site, application, entity uint16) EntityIdentifier {
	return EntityIdentifier(
		uint64(site)<<shiftSite |
			uint64(application)<<shiftApp |
			uint64(entity)<<shiftEntity,
	)
}

// Site возвращает номер площадки.
func (id EntityIdentifier) Site() uint16 {
	return uint16((id >> shiftSite) & mask16)
}

// Application возвращает номер приложения на площадке.
func (id EntityIdentifier) Application() uint16 {
	return uint16((id >> shiftApp) & mask16)
}

// Entity возвращает номер сущности внутри приложения.
func (id EntityIdentifier) Entity() uint16 {
	return uint16((id >> shiftEntity) & mask16)
}

// IsNil проверяет, является ли идентификатор нулевым.
func (id EntityIdentifier) IsNil() bool {
	return id == NilEntityIdentifier
}

// Encode возвращает 6-байтовое сетевое представление (big-endian).
func (id EntityIdentifier) Encode() []byte {
	buf := make([]byte, EntityIdentifierEncodedLength)
	binary.BigEndian.PutUint16(buf[0:], id.Site())
	binary.BigEndian.PutUint16(buf[2:], id.Application())
	binary.BigEndian.PutUint16(buf[4:], id.Entity())
	return buf
}

// DecodeEntityIdentifier разбирает сетевое представление.
func DecodeEntityIdentifier(buf []byte) (EntityIdentifier, error) {
	if len(buf) < EntityIdentifierEncodedLength {
		return NilEntityIdentifier, fmt.Errorf("entity identifier: buffer too short: %d bytes", len(buf))
	}
	return NewEntityIdentifier(
		binary.BigEndian.Uint16(buf[0:]),
		binary.BigEndian.Uint16(buf[2:]),
		binary.BigEndian.Uint16(buf[4:]),
	), nil
}

// String возвращает запись вида "site.app.entity".
func (id EntityIdentifier) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Site(), id.Application(), id.Entity())
}

// ParseEntityIdentifier разбирает запись "site.app.entity".
func ParseEntityIdentifier(s string) (EntityIdentifier, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return NilEntityIdentifier, fmt.Errorf("entity identifier %q: want site.app.entity", s)
	}

	var f [3]uint16
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return NilEntityIdentifier, fmt.Errorf("entity identifier %q: %w", s, err)
		}
		f[i] = uint16(v)
	}
	return NewEntityIdentifier(f[0], f[1], f[2]), nil
}

// MarshalText сериализует идентификатор как строку.
func (id EntityIdentifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText десериализует идентификатор. Пустая строка даёт нулевой идентификатор.
func (id *EntityIdentifier) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*id = NilEntityIdentifier
		return nil
	}
	v, err := ParseEntityIdentifier(string(data))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
