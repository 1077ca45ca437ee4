package mapping

// AttributeType - тег типа поля на проводе. Набор типов принадлежит
// транслятору параметров, маппинг лишь ссылается на него.
type AttributeType struct {
	Name string
	// EncodedLength - размер одного элемента в байтах, 0 для переменной длины.
	EncodedLength int
	// SupportedParameters - сколько внутренних параметров может заполнить одно поле.
	SupportedParameters int
}

// UnknownAttributeType - тип, не распознанный ни одним транслятором.
var UnknownAttributeType = AttributeType{Name: "UNKNOWN"}

// IsUnknown сообщает, что тип не задан.
func (t AttributeType) IsUnknown() bool {
	return t.Name == "" || t.Name == UnknownAttributeType.Name
}

func (t AttributeType) String() string { return t.Name }
