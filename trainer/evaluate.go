package trainer

import (
	"io"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/net/msa"
)

// Evaluate returns the log-likelihood of every sequence selected by indices
// under model, in index order. indices must be the ones the model was fit on
// so that every sequence keeps its subset.
func Evaluate(model *msa.Model, store datasets.SequenceStore, indices []int, batchSize int, opts ...datasets.Option) ([]float32, error) {
	if indices == nil {
		indices = datasets.AllIndices(store)
	}
	if _, numSeq := datasets.Groups(indices); numSeq != model.NumSeq() {
		return nil, errs.Configuration("%d subsets, model was built for %d", numSeq, model.NumSeq())
	}
	stream, err := datasets.MakeBatches(store, batchSize, false, indices, opts...)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	out := make([]float32, 0, len(indices))
	for {
		b, err := stream.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		ll, err := model.Forward(msa.InputsOf(b))
		if err != nil {
			return nil, err
		}
		out = append(out, ll...)
	}
}
