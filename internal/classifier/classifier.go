// Package classifier wraps the disease classification model behind a small
// interface: a preprocessed image tensor in, a probability distribution over
// disease classes out.
package classifier

type Metadata struct {
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	ImageSize   int     `json:"image_size"`
}

// Classifier maps a planar CHW float32 tensor to a softmax probability vector
// indexed by class id. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(tensor []float32) ([]float32, error)
}

// ClassCount returns the number of classes the model emits, taken from the
// last output dimension.
func (m Metadata) ClassCount() int {
	if len(m.OutputShape) == 0 {
		return 0
	}
	return int(m.OutputShape[len(m.OutputShape)-1])
}
