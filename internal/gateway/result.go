package gateway

// Resolution - исход поиска маппинга для входящего события.
type Resolution uint8

const (
	NotFound Resolution = iota
	Found
	Ambiguous
)

func (r Resolution) String() string {
	switch r {
	case Found:
		return "FOUND"
	case Ambiguous:
		return "AMBIGUOUS"
	}
	return "NOT_FOUND"
}

// MappingResult - результат разрешения маппинга. Ожидаемые неудачи
// (нет маппинга, неоднозначность) возвращаются значением, а не ошибкой.
type MappingResult[T any] struct {
	Status  Resolution
	Mapping T
	// Candidates - число рассмотренных кандидатов.
	Candidates int
}

func found[T any](m T, candidates int) MappingResult[T] {
	return MappingResult[T]{Status: Found, Mapping: m, Candidates: candidates}
}

func notFound[T any](candidates int) MappingResult[T] {
	return MappingResult[T]{Status: NotFound, Candidates: candidates}
}

func ambiguous[T any](candidates int) MappingResult[T] {
	return MappingResult[T]{Status: Ambiguous, Candidates: candidates}
}

func (r MappingResult[T]) IsFound() bool { return r.Status == Found }
