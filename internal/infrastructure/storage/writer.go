package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

const (
	MagicHeader string = `HLAJ`
	Version1    uint32 = 1

	// MaxValueLen ограничивает размер одного значения атрибута или параметра.
	MaxValueLen = 1 << 20
)

// JournalFileHeader - заголовок файла журнала. Только числа и массивы,
// поэтому binary.Write пишет его целиком.
type JournalFileHeader struct {
	Magic         [4]byte
	Version       uint32
	Timestamp     int64
	FederationLen uint16
	RecordCount   int32
}

// RecordHeader предваряет каждую запись. За ним идут класс, имя, тег и значения.
type RecordHeader struct {
	Offset     int64
	Kind       uint8
	Instance   uint64
	ClassLen   uint16
	NameLen    uint16
	TagLen     uint16
	ValueCount uint16
}

// ValueHeader предваряет имя и данные одного атрибута или параметра.
type ValueHeader struct {
	NameLen uint16
	DataLen uint32
}

func writeBinary(w io.Writer, j *Journal) error {
	records := j.Snapshot()
	if len(j.Federation) > math.MaxUint16 {
		return fmt.Errorf("federation name too long")
	}

	bw := bufio.NewWriter(w)
	header := JournalFileHeader{
		Version:       Version1,
		Timestamp:     j.Timestamp,
		FederationLen: uint16(len(j.Federation)),
		RecordCount:   int32(len(records)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := bw.WriteString(j.Federation); err != nil {
		return err
	}

	for i := range records {
		if err := writeRecord(bw, &records[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, r *Record) error {
	for _, s := range []string{r.Class, r.Name, string(r.Tag)} {
		if len(s) > math.MaxUint16 {
			return fmt.Errorf("field too long (%d bytes)", len(s))
		}
	}
	if len(r.Values) > math.MaxUint16 {
		return fmt.Errorf("too many values (%d)", len(r.Values))
	}

	rh := RecordHeader{
		Offset:     int64(r.Offset),
		Kind:       uint8(r.Kind),
		Instance:   r.Instance,
		ClassLen:   uint16(len(r.Class)),
		NameLen:    uint16(len(r.Name)),
		TagLen:     uint16(len(r.Tag)),
		ValueCount: uint16(len(r.Values)),
	}
	if err := binary.Write(w, binary.LittleEndian, rh); err != nil {
		return err
	}
	_, _ = w.WriteString(r.Class)
	_, _ = w.WriteString(r.Name)
	_, _ = w.Write(r.Tag)

	// Порядок значений фиксирован, чтобы одинаковые журналы давали одинаковые файлы.
	names := make([]string, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data := r.Values[name]
		if len(name) > math.MaxUint16 || len(data) > MaxValueLen {
			return fmt.Errorf("value %q too long", name)
		}
		vh := ValueHeader{NameLen: uint16(len(name)), DataLen: uint32(len(data))}
		if err := binary.Write(w, binary.LittleEndian, vh); err != nil {
			return err
		}
		_, _ = w.WriteString(name)
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
