package nn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ByteOrder of every scalar in the network record.
var ByteOrder = binary.LittleEndian

// maxParams rejects headers that would describe an absurdly large network,
// which in practice means the stream is corrupt.
const maxParams = 1 << 26

// header mirrors the seven configuration scalars in their record order.
type header struct {
	Inputs           int32
	Outputs          int32
	HiddenLayers     int32
	NeuronsPerHidden int32
	UseBias          int32
	Hidden           int32
	Output           int32
}

// Encode writes the configuration scalars, the weight buffer and, when bias
// is enabled, the bias buffer.
func (n *Network) Encode(w io.Writer) error {
	h := header{
		Inputs:           int32(n.cfg.Inputs),
		Outputs:          int32(n.cfg.Outputs),
		HiddenLayers:     int32(n.cfg.HiddenLayers),
		NeuronsPerHidden: int32(n.cfg.NeuronsPerHidden),
		Hidden:           int32(n.cfg.Hidden),
		Output:           int32(n.cfg.Output),
	}
	if n.cfg.UseBias {
		h.UseBias = 1
	}
	if err := binary.Write(w, ByteOrder, &h); err != nil {
		return fmt.Errorf("writing network header: %w", err)
	}
	if err := binary.Write(w, ByteOrder, n.weights); err != nil {
		return fmt.Errorf("writing weights: %w", err)
	}
	if n.cfg.UseBias {
		if err := binary.Write(w, ByteOrder, n.biases); err != nil {
			return fmt.Errorf("writing biases: %w", err)
		}
	}
	return nil
}

// Decode reads one network record. Derived counts are rebuilt from the
// configuration; a short stream yields an error wrapping io.ErrUnexpectedEOF.
func Decode(r io.Reader) (*Network, error) {
	var h header
	if err := binary.Read(r, ByteOrder, &h); err != nil {
		return nil, fmt.Errorf("reading network header: %w", unexpected(err))
	}
	cfg := Config{
		Inputs:           int(h.Inputs),
		Outputs:          int(h.Outputs),
		HiddenLayers:     int(h.HiddenLayers),
		NeuronsPerHidden: int(h.NeuronsPerHidden),
		UseBias:          h.UseBias != 0,
		Hidden:           Activation(h.Hidden),
		Output:           Activation(h.Output),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if params, ok := paramCount(h); !ok {
		return nil, fmt.Errorf("%w: %d parameters exceeds limit", ErrInvalidConfig, params)
	}

	net, err := allocate(cfg)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, ByteOrder, net.weights); err != nil {
		return nil, fmt.Errorf("reading weights: %w", unexpected(err))
	}
	if cfg.UseBias {
		if err := binary.Read(r, ByteOrder, net.biases); err != nil {
			return nil, fmt.Errorf("reading biases: %w", unexpected(err))
		}
	}
	return net, nil
}

// paramCount sums neurons and weights described by h in int64 without
// trusting any field, and reports whether the total is within maxParams.
func paramCount(h header) (int64, bool) {
	for _, v := range []int32{h.Inputs, h.Outputs, h.HiddenLayers, h.NeuronsPerHidden} {
		if v < 0 || v > maxParams {
			return int64(v), false
		}
	}
	in, out := int64(h.Inputs), int64(h.Outputs)
	layers, width := int64(h.HiddenLayers), int64(h.NeuronsPerHidden)

	// Every factor is at most 2^26, so no product below overflows.
	neurons := out + layers*width
	if neurons > maxParams {
		return neurons, false
	}
	weights := in * out
	if layers > 0 {
		weights = in*width + (layers-1)*width*width + width*out
	}
	total := neurons + weights
	return total, total <= maxParams
}

// unexpected reports a clean EOF inside a record as truncation.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
