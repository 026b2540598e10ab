package nn

// Train runs one backpropagation pass toward expected and returns the output
// produced by the forward pass that preceded the weight update.
//
// Biases are corrected as soon as a layer's delta is known. A layer's incoming
// weights are corrected only after the previous layer's delta has been
// computed from them.
func (n *Network) Train(input, expected []float32, rate float32) []float32 {
	result := n.Run(input)

	last := len(n.layers) - 1
	out := &n.layers[last]
	for i := 0; i < out.Outputs; i++ {
		y := float64(out.outputs[i])
		delta := (float64(expected[i]) - y) * out.derivative(y)
		out.deltas[i] = float32(delta)
		if out.Biases != nil {
			out.Biases[i] += out.deltas[i] * rate
		}
	}

	for h := last - 1; h >= 0; h-- {
		layer := &n.layers[h]
		next := &n.layers[h+1]
		for j := 0; j < layer.Outputs; j++ {
			var sum float64
			for k := 0; k < next.Outputs; k++ {
				sum += float64(next.deltas[k]) * float64(next.Weights[k*next.Inputs+j])
			}
			y := float64(layer.outputs[j])
			layer.deltas[j] = float32(sum * layer.derivative(y))
			if layer.Biases != nil {
				layer.Biases[j] += layer.deltas[j] * rate
			}
		}
		next.correct(layer.outputs, rate)
	}

	n.layers[0].correct(input, rate)
	return result
}

func (l *Layer) correct(input []float32, rate float32) {
	for i := 0; i < l.Outputs; i++ {
		row := l.Weights[i*l.Inputs : (i+1)*l.Inputs]
		for j := range row {
			row[j] += l.deltas[i] * input[j] * rate
		}
	}
}
