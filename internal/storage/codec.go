package storage

import (
	"encoding/json"
	"errors"

	"neurosnake/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion stamps records written by this build.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeHistory(history []model.GenerationRecord) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeHistory(data []byte) ([]model.GenerationRecord, error) {
	var history []model.GenerationRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	for _, record := range history {
		if err := checkVersion(record.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return history, nil
}

func EncodeRun(run model.RunSummary) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunSummary, error) {
	var run model.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return run, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

func encodeRuns(runs []model.RunSummary) ([]byte, error) {
	return json.Marshal(runs)
}

func decodeRuns(data []byte) ([]model.RunSummary, error) {
	var runs []model.RunSummary
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, err
	}
	for _, run := range runs {
		if err := checkVersion(run.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return runs, nil
}
