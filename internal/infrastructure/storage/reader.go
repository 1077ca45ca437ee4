package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

func readBinary(r io.Reader) (*Journal, error) {
	br := bufio.NewReader(r)

	var header JournalFileHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}
	if header.RecordCount < 0 {
		return nil, fmt.Errorf("invalid record count %d", header.RecordCount)
	}

	federation, err := readBytes(br, int(header.FederationLen))
	if err != nil {
		return nil, fmt.Errorf("failed to read federation name: %w", err)
	}

	j := &Journal{
		Federation: string(federation),
		Timestamp:  header.Timestamp,
	}
	// Счётчик из заголовка не проверен, поэтому память выделяется по мере чтения.
	if header.RecordCount > 0 {
		j.Records = make([]Record, 0, min(int(header.RecordCount), 1024))
	}
	for i := 0; i < int(header.RecordCount); i++ {
		rec, err := readRecord(br)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		j.Records = append(j.Records, rec)
	}
	return j, nil
}

func readRecord(r io.Reader) (Record, error) {
	var rh RecordHeader
	if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
		return Record{}, err
	}

	rec := Record{
		Offset:   time.Duration(rh.Offset),
		Kind:     RecordKind(rh.Kind),
		Instance: rh.Instance,
	}
	if rec.Kind < RecordDiscover || rec.Kind > RecordInteraction {
		return Record{}, fmt.Errorf("unknown record kind %d", rh.Kind)
	}

	class, err := readBytes(r, int(rh.ClassLen))
	if err != nil {
		return Record{}, err
	}
	name, err := readBytes(r, int(rh.NameLen))
	if err != nil {
		return Record{}, err
	}
	if rec.Tag, err = readBytes(r, int(rh.TagLen)); err != nil {
		return Record{}, err
	}
	rec.Class, rec.Name = string(class), string(name)

	if rh.ValueCount > 0 {
		rec.Values = make(map[string][]byte, rh.ValueCount)
	}
	for k := 0; k < int(rh.ValueCount); k++ {
		var vh ValueHeader
		if err := binary.Read(r, binary.LittleEndian, &vh); err != nil {
			return Record{}, err
		}
		vname, err := readBytes(r, int(vh.NameLen))
		if err != nil {
			return Record{}, err
		}
		if vh.DataLen > MaxValueLen {
			return Record{}, fmt.Errorf("value %q: length %d exceeds %d", vname, vh.DataLen, MaxValueLen)
		}
		data, err := readBytes(r, int(vh.DataLen))
		if err != nil {
			return Record{}, err
		}
		rec.Values[string(vname)] = data
	}
	return rec, nil
}

func readBytes(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, err
	}
	if len(buf) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}
