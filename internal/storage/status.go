package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"neurosnake/internal/elite"
	"neurosnake/internal/model"
	"neurosnake/internal/nn"
)

// statusHeader is the fixed prefix of a status record.
type statusHeader struct {
	Generation      int32
	BestPerformance float32
	BestScore       float32
}

// EncodeStatus writes the status record. A nil elite list is written as an
// empty list of the default capacity.
func EncodeStatus(w io.Writer, status model.Status) error {
	h := statusHeader{
		Generation:      status.Generation,
		BestPerformance: status.BestPerformance,
		BestScore:       status.BestScore,
	}
	if err := binary.Write(w, nn.ByteOrder, &h); err != nil {
		return fmt.Errorf("writing status header: %w", err)
	}
	elites := status.Elites
	if elites == nil {
		elites = elite.NewList(elite.DefaultCapacity)
	}
	return elites.Encode(w)
}

func DecodeStatus(r io.Reader) (model.Status, error) {
	var h statusHeader
	if err := binary.Read(r, nn.ByteOrder, &h); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return model.Status{}, fmt.Errorf("reading status header: %w", err)
	}
	elites, err := elite.Decode(r)
	if err != nil {
		return model.Status{}, err
	}
	return model.Status{
		Generation:      h.Generation,
		BestPerformance: h.BestPerformance,
		BestScore:       h.BestScore,
		Elites:          elites,
	}, nil
}

func MarshalStatus(status model.Status) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeStatus(&buf, status); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalStatus(data []byte) (model.Status, error) {
	return DecodeStatus(bytes.NewReader(data))
}
