package mapping

// Зарезервированные имена специальных атрибутов и параметров.
const (
	// MappingNameAttribute - псевдо-атрибут, в который подставляется имя маппинга.
	MappingNameAttribute = "MAPPING_NAME"
	// MappingNameParameter - то же для параметров взаимодействий.
	MappingNameParameter = "MAPPING_NAME"
	// EntityTypeAttribute - псевдо-атрибут с сырым типом сущности.
	EntityTypeAttribute = "ENTITY_TYPE_ID"
	// DefaultEntityTypeAttributeName - атрибут RPR FOM, несущий тип сущности.
	DefaultEntityTypeAttributeName = "EntityType"

	// AboutActorIDParameter и SendingActorIDParameter записываются в заголовок сообщения.
	AboutActorIDParameter   = "aboutActorId"
	SendingActorIDParameter = "sendingActorId"
)

// IsSpecialName сообщает, является ли имя зарезервированным псевдо-полем.
func IsSpecialName(name string) bool {
	return name == MappingNameAttribute || name == EntityTypeAttribute
}
