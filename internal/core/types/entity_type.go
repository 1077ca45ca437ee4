package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// EntityType - DIS/RPR дискриминатор типа сущности, упакованный в 64 бита.
//
// Формат битов (от старших к младшим):
//
//	[ Kind (8) | Domain (8) | Country (16) | Category (8) | Subcategory (8) | Specific (8) | Extra (8) ]
//
// Порядок полей совпадает с сетевым представлением, поэтому кодирование
// сводится к записи uint64 в big-endian.
//
// Нулевое поле трактуется как wildcard при сопоставлении с маппингами.
type EntityType uint64

// EntityTypeEncodedLength - размер закодированного EntityType в байтах.
const EntityTypeEncodedLength = 8

const (
	shiftExtra       = 0
	shiftSpecific    = 8
	shiftSubcategory = 16
	shiftCategory    = 24
	shiftCountry     = 32
	shiftDomain      = 48
	shiftKind        = 56

	mask8  = (1 << 8) - 1
	mask16 = (1 << 16) - 1
)

// entityTypeFieldCount - количество полей, участвующих в сопоставлении.
const entityTypeFieldCount = 7

// NewEntityType собирает EntityType из полей.
func NewEntityType(kind, domain uint8, country uint16, category, subcategory, specific, extra uint8) EntityType {
	return EntityType(
		uint64(kind)<<shiftKind |
			uint64(domain)<<shiftDomain |
			uint64(country)<<shiftCountry |
			uint64(category)<<shiftCategory |
			uint64(subcategory)<<shiftSubcategory |
			uint64(specific)<<shiftSpecific |
			uint64(extra)<<shiftExtra,
	)
}

func (e EntityType) Kind() uint8        { return uint8((e >> shiftKind) & mask8) }
func (e EntityType) Domain() uint8      { return uint8((e >> shiftDomain) & mask8) }
func (e EntityType) Country() uint16    { return uint16((e >> shiftCountry) & mask16) }
func (e EntityType) Category() uint8    { return uint8((e >> shiftCategory) & mask8) }
func (e EntityType) Subcategory() uint8 { return uint8((e >> shiftSubcategory) & mask8) }
func (e EntityType) Specific() uint8    { return uint8((e >> shiftSpecific) & mask8) }
func (e EntityType) Extra() uint8       { return uint8((e >> shiftExtra) & mask8) }

func (e EntityType) fields() [entityTypeFieldCount]uint16 {
	return [entityTypeFieldCount]uint16{
		uint16(e.Kind()),
		uint16(e.Domain()),
		e.Country(),
		uint16(e.Category()),
		uint16(e.Subcategory()),
		uint16(e.Specific()),
		uint16(e.Extra()),
	}
}

// Match сопоставляет шаблон e (тип из маппинга) с фактическим типом actual.
//
// Нулевое поле шаблона является wildcard. Ненулевое поле, отличающееся от
// actual, означает отсутствие совпадения. rank - длина префикса из ненулевых
// совпавших полей до первого wildcard: чем он длиннее, тем точнее маппинг.
func (e EntityType) Match(actual EntityType) (rank int, ok bool) {
	pattern := e.fields()
	value := actual.fields()

	prefix := true
	for i := range pattern {
		if pattern[i] == 0 {
			prefix = false
			continue
		}
		if pattern[i] != value[i] {
			return 0, false
		}
		if prefix {
			rank++
		}
	}
	return rank, true
}

// Encode возвращает 8-байтовое сетевое представление.
func (e EntityType) Encode() []byte {
	buf := make([]byte, EntityTypeEncodedLength)
	binary.BigEndian.PutUint64(buf, uint64(e))
	return buf
}

// DecodeEntityType разбирает сетевое представление. Лишние байты игнорируются.
func DecodeEntityType(buf []byte) (EntityType, error) {
	if len(buf) < EntityTypeEncodedLength {
		return 0, fmt.Errorf("entity type: buffer too short: %d bytes", len(buf))
	}
	return EntityType(binary.BigEndian.Uint64(buf)), nil
}

// String возвращает запись вида "1.1.222.2.4.6.0".
func (e EntityType) String() string {
	f := e.fields()
	parts := make([]string, len(f))
	for i, v := range f {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ".")
}

// ParseEntityType разбирает текстовую запись. Недостающие хвостовые поля считаются нулями.
func ParseEntityType(s string) (EntityType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("entity type: empty string")
	}

	parts := strings.Split(s, ".")
	if len(parts) > entityTypeFieldCount {
		return 0, fmt.Errorf("entity type %q: too many fields", s)
	}

	var f [entityTypeFieldCount]uint64
	for i, p := range parts {
		bits := 8
		if i == 2 {
			bits = 16
		}
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, bits)
		if err != nil {
			return 0, fmt.Errorf("entity type %q field %d: %w", s, i, err)
		}
		f[i] = v
	}

	return NewEntityType(uint8(f[0]), uint8(f[1]), uint16(f[2]), uint8(f[3]), uint8(f[4]), uint8(f[5]), uint8(f[6])), nil
}

// MarshalText позволяет использовать EntityType в JSON/YAML как строку.
func (e EntityType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EntityType) UnmarshalText(data []byte) error {
	v, err := ParseEntityType(string(data))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
