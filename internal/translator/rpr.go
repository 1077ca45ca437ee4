package translator

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
)

// Типы полей RPR FOM, поддерживаемые RPRTranslator.
var (
	RPRUnsignedChar     = mapping.AttributeType{Name: "UNSIGNED_CHAR_TYPE", EncodedLength: 1, SupportedParameters: 1}
	RPRUnsignedShort    = mapping.AttributeType{Name: "UNSIGNED_SHORT_TYPE", EncodedLength: 2, SupportedParameters: 1}
	RPRUnsignedInt      = mapping.AttributeType{Name: "UNSIGNED_INT_TYPE", EncodedLength: 4, SupportedParameters: 1}
	RPRInt              = mapping.AttributeType{Name: "INT_TYPE", EncodedLength: 4, SupportedParameters: 1}
	RPRFloat            = mapping.AttributeType{Name: "FLOAT_TYPE", EncodedLength: 4, SupportedParameters: 1}
	RPRDouble           = mapping.AttributeType{Name: "DOUBLE_TYPE", EncodedLength: 8, SupportedParameters: 1}
	RPRBoolean          = mapping.AttributeType{Name: "BOOLEAN_TYPE", EncodedLength: 4, SupportedParameters: 1}
	RPREntityType       = mapping.AttributeType{Name: "ENTITY_TYPE", EncodedLength: types.EntityTypeEncodedLength, SupportedParameters: 1}
	RPREntityIdentifier = mapping.AttributeType{Name: "ENTITY_IDENTIFIER_TYPE", EncodedLength: types.EntityIdentifierEncodedLength, SupportedParameters: 1}
	RPREulerAngles      = mapping.AttributeType{Name: "EULER_ANGLES_TYPE", EncodedLength: 12, SupportedParameters: 1}
	RPRVelocityVector   = mapping.AttributeType{Name: "VELOCITY_VECTOR_TYPE", EncodedLength: 12, SupportedParameters: 1}
	RPRAngularVelocity  = mapping.AttributeType{Name: "ANGULAR_VELOCITY_VECTOR_TYPE", EncodedLength: 12, SupportedParameters: 1}
	RPRWorldCoordinate  = mapping.AttributeType{Name: "WORLD_COORDINATE_TYPE", EncodedLength: 24, SupportedParameters: 1}
	RPRMarking          = mapping.AttributeType{Name: "MARKING_TYPE", EncodedLength: 12, SupportedParameters: 1}
	RPRString           = mapping.AttributeType{Name: "STRING_TYPE", SupportedParameters: 1}
	RPROctet            = mapping.AttributeType{Name: "OCTET_TYPE", SupportedParameters: 1}
	// RPRSpatial - упрощённая структура Spatial: алгоритм DR, признак заморозки,
	// положение, ориентация и скорость.
	RPRSpatial = mapping.AttributeType{Name: "SPATIAL_TYPE", EncodedLength: 52, SupportedParameters: 5}
)

var rprTypes = []mapping.AttributeType{
	RPRUnsignedChar, RPRUnsignedShort, RPRUnsignedInt, RPRInt, RPRFloat, RPRDouble, RPRBoolean,
	RPREntityType, RPREntityIdentifier, RPREulerAngles, RPRVelocityVector, RPRAngularVelocity,
	RPRWorldCoordinate, RPRMarking, RPRString, RPROctet, RPRSpatial,
}

// markingCharacterSetASCII - первый байт маркировки RPR.
const markingCharacterSetASCII = 1

// RPRTranslator - эталонный транслятор для базовых типов RPR FOM (big-endian).
type RPRTranslator struct {
	types map[string]mapping.AttributeType
}

func NewRPRTranslator() *RPRTranslator {
	t := &RPRTranslator{types: make(map[string]mapping.AttributeType, len(rprTypes))}
	for _, at := range rprTypes {
		t.types[at.Name] = at
	}
	return t
}

// RPRAttributeTypes возвращает все поддерживаемые типы (для JSON Schema и инспекции).
func RPRAttributeTypes() []mapping.AttributeType {
	return append([]mapping.AttributeType(nil), rprTypes...)
}

func (r *RPRTranslator) Name() string { return "rpr" }

func (r *RPRTranslator) TranslatesAttributeType(t mapping.AttributeType) bool {
	known, ok := r.types[t.Name]
	return ok && known == t
}

func (r *RPRTranslator) AttributeTypeForName(name string) (mapping.AttributeType, bool) {
	t, ok := r.types[strings.ToUpper(strings.TrimSpace(name))]
	return t, ok
}

func (r *RPRTranslator) Decode(env Env, buf []byte, m *mapping.OneToManyMapping) ([]domain.Value, error) {
	out := make([]domain.Value, len(m.Params))

	switch m.Shape() {
	case mapping.ShapeArray:
		size := m.HLAType.EncodedLength
		if size <= 0 || len(buf)%size != 0 {
			return nil, fmt.Errorf("%s: buffer of %d bytes is not a multiple of %d", m.HLAName, len(buf), size)
		}

		def := m.Params[0]
		arr := domain.Array{Elem: wireDataType(m.HLAType)}
		if def.HasEnumTable() {
			arr.Elem = domain.DataTypeEnum
		}
		for off := 0; off < len(buf); off += size {
			w, err := decodeWire(m.HLAType, buf[off:off+size])
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", m.HLAName, off/size, err)
			}
			if def.HasEnumTable() {
				w = enumToGame(env, m, def, w)
			}
			arr.Items = append(arr.Items, w)
		}
		out[0] = arr

	case mapping.ShapeGroup:
		comps, err := decodeGroup(m.HLAType, buf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.HLAName, err)
		}
		for i, def := range m.Params {
			if i >= len(comps) {
				break
			}
			v, err := toGame(env, m, def, comps[i])
			if err != nil {
				return nil, fmt.Errorf("%s -> %s: %w", m.HLAName, def.GameName, err)
			}
			out[i] = v
		}

	case mapping.ShapeScalar:
		w, err := decodeWire(m.HLAType, buf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.HLAName, err)
		}
		for i, def := range m.Params {
			v, err := toGame(env, m, def, w)
			if err != nil {
				return nil, fmt.Errorf("%s -> %s: %w", m.HLAName, def.GameName, err)
			}
			out[i] = v
		}
	}

	return out, nil
}

func (r *RPRTranslator) Encode(env Env, values []domain.Value, m *mapping.OneToManyMapping) ([]byte, error) {
	switch m.Shape() {
	case mapping.ShapeArray:
		if len(values) == 0 || values[0] == nil {
			return nil, fmt.Errorf("%s: no array value", m.HLAName)
		}
		arr, ok := values[0].(domain.Array)
		if !ok {
			return nil, fmt.Errorf("%s: expected ARRAY, got %s", m.HLAName, values[0].Type())
		}

		var buf []byte
		for i, item := range arr.Items {
			w, err := toHLA(env, m.HLAType, m.Params[0], item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", m.HLAName, i, err)
			}
			warnTruncated(env, m, w)
			b, err := encodeWire(m.HLAType, w)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", m.HLAName, i, err)
			}
			buf = append(buf, b...)
		}
		return buf, nil

	case mapping.ShapeGroup:
		comps := make([]domain.Value, m.HLAType.SupportedParameters)
		for i, def := range m.Params {
			if i >= len(values) || values[i] == nil || i >= len(comps) {
				continue
			}
			w, err := toHLA(env, m.HLAType, def, values[i])
			if err != nil {
				return nil, fmt.Errorf("%s <- %s: %w", m.HLAName, def.GameName, err)
			}
			comps[i] = w
		}
		return encodeGroup(m.HLAType, comps)

	case mapping.ShapeScalar:
		for i, v := range values {
			if v == nil || i >= len(m.Params) {
				continue
			}
			w, err := toHLA(env, m.HLAType, m.Params[i], v)
			if err != nil {
				return nil, fmt.Errorf("%s <- %s: %w", m.HLAName, m.Params[i].GameName, err)
			}
			warnTruncated(env, m, w)
			return encodeWire(m.HLAType, w)
		}
	}
	return nil, fmt.Errorf("%s: no value to encode", m.HLAName)
}

// warnTruncated предупреждает, что строка не помещается в MARKING и будет обрезана.
func warnTruncated(env Env, m *mapping.OneToManyMapping, w domain.Value) {
	if m.HLAType.Name != RPRMarking.Name {
		return
	}
	if limit := m.HLAType.EncodedLength - 1; len(w.String()) > limit {
		env.log().WithFields(logrus.Fields{
			"hla_name": m.HLAName,
			"value":    w.String(),
			"limit":    limit,
		}).Warn("Marking truncated")
	}
}

// wireDataType - естественный внутренний тип значения на проводе.
func wireDataType(t mapping.AttributeType) domain.DataType {
	switch t.Name {
	case RPRUnsignedChar.Name, RPRUnsignedShort.Name, RPRUnsignedInt.Name:
		return domain.DataTypeUInt
	case RPRInt.Name:
		return domain.DataTypeInt
	case RPRFloat.Name:
		return domain.DataTypeFloat
	case RPRDouble.Name:
		return domain.DataTypeDouble
	case RPRBoolean.Name:
		return domain.DataTypeBool
	case RPREulerAngles.Name, RPRVelocityVector.Name, RPRAngularVelocity.Name, RPRWorldCoordinate.Name:
		return domain.DataTypeVec3
	}
	return domain.DataTypeString
}

func decodeWire(t mapping.AttributeType, buf []byte) (domain.Value, error) {
	if t.EncodedLength > 0 && len(buf) < t.EncodedLength {
		return nil, fmt.Errorf("%s needs %d bytes, got %d", t.Name, t.EncodedLength, len(buf))
	}

	switch t.Name {
	case RPRUnsignedChar.Name:
		return domain.UInt(buf[0]), nil
	case RPRUnsignedShort.Name:
		return domain.UInt(binary.BigEndian.Uint16(buf)), nil
	case RPRUnsignedInt.Name:
		return domain.UInt(binary.BigEndian.Uint32(buf)), nil
	case RPRInt.Name:
		return domain.Int(int32(binary.BigEndian.Uint32(buf))), nil
	case RPRFloat.Name:
		return domain.Float(math.Float32frombits(binary.BigEndian.Uint32(buf))), nil
	case RPRDouble.Name:
		return domain.Double(math.Float64frombits(binary.BigEndian.Uint64(buf))), nil
	case RPRBoolean.Name:
		return domain.Bool(binary.BigEndian.Uint32(buf) != 0), nil
	case RPREntityType.Name:
		et, err := types.DecodeEntityType(buf)
		if err != nil {
			return nil, err
		}
		return domain.String(et.String()), nil
	case RPREntityIdentifier.Name:
		id, err := types.DecodeEntityIdentifier(buf)
		if err != nil {
			return nil, err
		}
		return domain.String(id.String()), nil
	case RPREulerAngles.Name, RPRVelocityVector.Name, RPRAngularVelocity.Name:
		return domain.Vec3(decodeVec3f(buf)), nil
	case RPRWorldCoordinate.Name:
		return domain.Vec3(decodeVec3d(buf)), nil
	case RPRMarking.Name:
		return domain.String(trimNUL(buf[1:t.EncodedLength])), nil
	case RPRString.Name, RPROctet.Name:
		return domain.String(trimNUL(buf)), nil
	}
	return nil, fmt.Errorf("unsupported attribute type %s", t.Name)
}

func encodeWire(t mapping.AttributeType, w domain.Value) ([]byte, error) {
	switch t.Name {
	case RPRUnsignedChar.Name:
		n, err := unsigned(w, 8)
		if err != nil {
			return nil, err
		}
		return []byte{byte(n)}, nil
	case RPRUnsignedShort.Name:
		n, err := unsigned(w, 16)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint16(nil, uint16(n)), nil
	case RPRUnsignedInt.Name:
		n, err := unsigned(w, 32)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint32(nil, uint32(n)), nil
	case RPRInt.Name:
		c, err := domain.Convert(w, domain.DataTypeInt)
		if err != nil {
			return nil, err
		}
		n := int64(c.(domain.Int))
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows %s", n, t.Name)
		}
		return binary.BigEndian.AppendUint32(nil, uint32(int32(n))), nil
	case RPRFloat.Name:
		c, err := domain.Convert(w, domain.DataTypeFloat)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint32(nil, math.Float32bits(float32(c.(domain.Float)))), nil
	case RPRDouble.Name:
		c, err := domain.Convert(w, domain.DataTypeDouble)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(float64(c.(domain.Double)))), nil
	case RPRBoolean.Name:
		c, err := domain.Convert(w, domain.DataTypeBool)
		if err != nil {
			return nil, err
		}
		n := uint32(0)
		if c.(domain.Bool) {
			n = 1
		}
		return binary.BigEndian.AppendUint32(nil, n), nil
	case RPREntityType.Name:
		et, err := types.ParseEntityType(w.String())
		if err != nil {
			return nil, err
		}
		return et.Encode(), nil
	case RPREntityIdentifier.Name:
		if w.String() == "" {
			return types.NilEntityIdentifier.Encode(), nil
		}
		id, err := types.ParseEntityIdentifier(w.String())
		if err != nil {
			return nil, err
		}
		return id.Encode(), nil
	case RPREulerAngles.Name, RPRVelocityVector.Name, RPRAngularVelocity.Name:
		v, ok := w.(domain.Vec3)
		if !ok {
			return nil, fmt.Errorf("%s needs VEC3, got %s", t.Name, w.Type())
		}
		return encodeVec3f(mgl64.Vec3(v)), nil
	case RPRWorldCoordinate.Name:
		v, ok := w.(domain.Vec3)
		if !ok {
			return nil, fmt.Errorf("%s needs VEC3, got %s", t.Name, w.Type())
		}
		return encodeVec3d(mgl64.Vec3(v)), nil
	case RPRMarking.Name:
		buf := make([]byte, t.EncodedLength)
		buf[0] = markingCharacterSetASCII
		copy(buf[1:], w.String())
		return buf, nil
	case RPRString.Name:
		return append([]byte(w.String()), 0), nil
	case RPROctet.Name:
		return []byte(w.String()), nil
	}
	return nil, fmt.Errorf("unsupported attribute type %s", t.Name)
}

// Раскладка SPATIAL_TYPE: [DR u8][frozen u8][pad 2][location 3*f64][orientation 3*f32][velocity 3*f32].
const (
	spatialLocationOffset    = 4
	spatialOrientationOffset = 28
	spatialVelocityOffset    = 40
)

func decodeGroup(t mapping.AttributeType, buf []byte) ([]domain.Value, error) {
	if t.Name != RPRSpatial.Name {
		return nil, fmt.Errorf("%s is not a group type", t.Name)
	}
	if len(buf) < t.EncodedLength {
		return nil, fmt.Errorf("%s needs %d bytes, got %d", t.Name, t.EncodedLength, len(buf))
	}
	return []domain.Value{
		domain.UInt(buf[0]),
		domain.Bool(buf[1] != 0),
		domain.Vec3(decodeVec3d(buf[spatialLocationOffset:])),
		domain.Vec3(decodeVec3f(buf[spatialOrientationOffset:])),
		domain.Vec3(decodeVec3f(buf[spatialVelocityOffset:])),
	}, nil
}

func encodeGroup(t mapping.AttributeType, comps []domain.Value) ([]byte, error) {
	if t.Name != RPRSpatial.Name {
		return nil, fmt.Errorf("%s is not a group type", t.Name)
	}

	buf := make([]byte, t.EncodedLength)
	if comps[0] != nil {
		n, err := unsigned(comps[0], 8)
		if err != nil {
			return nil, fmt.Errorf("dead reckoning algorithm: %w", err)
		}
		buf[0] = byte(n)
	}
	if comps[1] != nil {
		frozen, err := domain.Convert(comps[1], domain.DataTypeBool)
		if err != nil {
			return nil, fmt.Errorf("frozen: %w", err)
		}
		if frozen.(domain.Bool) {
			buf[1] = 1
		}
	}

	vectors := []struct {
		idx    int
		offset int
		double bool
	}{
		{2, spatialLocationOffset, true},
		{3, spatialOrientationOffset, false},
		{4, spatialVelocityOffset, false},
	}
	for _, vc := range vectors {
		if comps[vc.idx] == nil {
			continue
		}
		v, ok := comps[vc.idx].(domain.Vec3)
		if !ok {
			return nil, fmt.Errorf("component %d needs VEC3, got %s", vc.idx, comps[vc.idx].Type())
		}
		if vc.double {
			copy(buf[vc.offset:], encodeVec3d(mgl64.Vec3(v)))
		} else {
			copy(buf[vc.offset:], encodeVec3f(mgl64.Vec3(v)))
		}
	}
	return buf, nil
}

func unsigned(w domain.Value, bits int) (uint64, error) {
	n, ok := domain.Uint64(w)
	if !ok {
		return 0, fmt.Errorf("cannot use %s %q as unsigned integer", w.Type(), w.String())
	}
	if bits < 64 && n >= 1<<bits {
		return 0, fmt.Errorf("value %d overflows %d bits", n, bits)
	}
	return n, nil
}

func decodeVec3f(buf []byte) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(math.Float32frombits(binary.BigEndian.Uint32(buf[0:]))),
		float64(math.Float32frombits(binary.BigEndian.Uint32(buf[4:]))),
		float64(math.Float32frombits(binary.BigEndian.Uint32(buf[8:]))),
	}
}

func decodeVec3d(buf []byte) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Float64frombits(binary.BigEndian.Uint64(buf[0:])),
		math.Float64frombits(binary.BigEndian.Uint64(buf[8:])),
		math.Float64frombits(binary.BigEndian.Uint64(buf[16:])),
	}
}

func encodeVec3f(v mgl64.Vec3) []byte {
	buf := make([]byte, 0, 12)
	for _, c := range v {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(c)))
	}
	return buf
}

func encodeVec3d(v mgl64.Vec3) []byte {
	buf := make([]byte, 0, 24)
	for _, c := range v {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(c))
	}
	return buf
}

func trimNUL(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
