package mapping

import "strings"

// LocalOrRemote - направленность маппинга.
type LocalOrRemote uint8

const (
	// LocalAndRemote - объект публикуется и принимается из федерации.
	LocalAndRemote LocalOrRemote = iota
	// LocalOnly - только публикация локальных акторов.
	LocalOnly
	// RemoteOnly - только приём удалённых объектов.
	RemoteOnly
)

var directionStringToType = map[string]LocalOrRemote{
	"LOCAL_AND_REMOTE": LocalAndRemote,
	"LOCAL_ONLY":       LocalOnly,
	"REMOTE_ONLY":      RemoteOnly,
}

var directionTypeToString = map[LocalOrRemote]string{
	LocalAndRemote: "LOCAL_AND_REMOTE",
	LocalOnly:      "LOCAL_ONLY",
	RemoteOnly:     "REMOTE_ONLY",
}

// ParseLocalOrRemote конвертирует строку конфигурации. Пустая строка - LocalAndRemote.
func ParseLocalOrRemote(s string) (LocalOrRemote, bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "" {
		return LocalAndRemote, true
	}
	val, ok := directionStringToType[upper]
	return val, ok
}

func (d LocalOrRemote) String() string {
	if val, ok := directionTypeToString[d]; ok {
		return val
	}
	return "UNKNOWN"
}

// IsLocal сообщает, публикует ли маппинг локальных акторов.
func (d LocalOrRemote) IsLocal() bool { return d != RemoteOnly }

// IsRemote сообщает, принимает ли маппинг удалённые объекты.
func (d LocalOrRemote) IsRemote() bool { return d != LocalOnly }
