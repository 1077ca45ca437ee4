package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RecordKind - тип записи журнала федерации.
type RecordKind uint8

const (
	RecordDiscover RecordKind = iota + 1
	RecordReflect
	RecordRemove
	RecordInteraction
)

func (k RecordKind) String() string {
	switch k {
	case RecordDiscover:
		return "discover"
	case RecordReflect:
		return "reflect"
	case RecordRemove:
		return "remove"
	case RecordInteraction:
		return "interaction"
	}
	return "unknown"
}

// Record - один обратный вызов RTI. Хэндлы заменены именами, кроме
// хэндла экземпляра: он нужен, чтобы связать обновления с обнаружением.
type Record struct {
	Offset   time.Duration
	Kind     RecordKind
	Instance uint64
	Class    string
	Name     string
	Tag      []byte
	Values   map[string][]byte
}

// Journal - запись входящего трафика федерации за сессию.
type Journal struct {
	mu         sync.Mutex
	Federation string
	Timestamp  int64
	Records    []Record
	started    time.Time
}

func NewJournal(federation string) *Journal {
	now := time.Now()
	return &Journal{Federation: federation, Timestamp: now.Unix(), started: now}
}

// Append добавляет запись со смещением от начала журнала.
func (j *Journal) Append(rec Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started.IsZero() {
		j.started = time.Now()
	}
	rec.Offset = time.Since(j.started)
	j.Records = append(j.Records, rec)
}

// Len возвращает количество записей.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.Records)
}

// Snapshot возвращает копию списка записей.
func (j *Journal) Snapshot() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Record(nil), j.Records...)
}

// JournalService сохраняет журналы в каталог.
type JournalService struct {
	SaveDir string
}

func NewJournalService(dir string) *JournalService {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &JournalService{SaveDir: dir}
}

// Save пишет журнал в новый файл и возвращает его путь.
func (s *JournalService) Save(j *Journal) (string, error) {
	filename := fmt.Sprintf("journal_%s_%d.hlaj", sanitize(j.Federation), j.Timestamp)
	path := filepath.Join(s.SaveDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := writeBinary(f, j); err != nil {
		return "", err
	}
	return path, nil
}

func (s *JournalService) Load(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readBinary(f)
}

func sanitize(name string) string {
	if name == "" {
		return "local"
	}
	out := []rune(name)
	for i, r := range out {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}
