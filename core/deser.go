package core

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// NOTE: Tests are in backing_store_test.go

func BreathRecordToBytes(record *BreathRecord) ([]byte, error) {
	buf, err := msgpack.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("error encoding breath record: %w", err)
	}
	return buf, nil
}

func BytesToBreathRecord(buf []byte) (*BreathRecord, error) {
	record := &BreathRecord{}
	if err := msgpack.Unmarshal(buf, record); err != nil {
		return nil, fmt.Errorf("error decoding breath record: %w", err)
	}
	return record, nil
}
