package elite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"neurosnake/internal/nn"
)

var ErrInvalidRecord = errors.New("invalid elite list record")

// Encode writes the capacity, the member count, then every member's network
// record followed by its fitness, best first.
func (l *List) Encode(w io.Writer) error {
	head := [2]int32{int32(l.maxLen), int32(len(l.entries))}
	if err := binary.Write(w, nn.ByteOrder, head); err != nil {
		return fmt.Errorf("writing elite header: %w", err)
	}
	for i, entry := range l.entries {
		if err := entry.Network.Encode(w); err != nil {
			return fmt.Errorf("elite %d: %w", i, err)
		}
		if err := binary.Write(w, nn.ByteOrder, entry.Fitness); err != nil {
			return fmt.Errorf("elite %d: writing fitness: %w", i, err)
		}
	}
	return nil
}

// Decode reads a list record. Members are re-added one by one, so their order
// comes from the fitness ordering rather than from the stream.
func Decode(r io.Reader) (*List, error) {
	var head [2]int32
	if err := binary.Read(r, nn.ByteOrder, &head); err != nil {
		return nil, fmt.Errorf("reading elite header: %w", truncated(err))
	}
	maxLen, count := head[0], head[1]
	if maxLen < 0 || count < 0 {
		return nil, fmt.Errorf("%w: max_len=%d count=%d", ErrInvalidRecord, maxLen, count)
	}

	list := NewList(int(maxLen))
	for i := int32(0); i < count; i++ {
		net, err := nn.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("elite %d: %w", i, err)
		}
		var fitness float32
		if err := binary.Read(r, nn.ByteOrder, &fitness); err != nil {
			return nil, fmt.Errorf("elite %d: reading fitness: %w", i, truncated(err))
		}
		list.Add(net, fitness)
	}
	return list, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
