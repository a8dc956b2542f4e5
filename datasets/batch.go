package datasets

import "github.com/neurlang/msahmm/tensor"

// Batch is one padded, masked, one-hot mini-batch. All fields share the same
// leading batch dimension.
type Batch struct {
	Sequences tensor.D3  // (batch, length, AlphabetSize) one-hot
	Mask      tensor.D3  // (batch, length, 1), 1 where the symbol is a standard amino acid
	Subset    []int32    // dense group id of every sequence
	Labels    []float32  // zero labels paired with the batch
	Indices   []int      // dataset index of every sequence
	Symbols   [][]Symbol // padded symbol rows the tensors were derived from
}

// Len returns the batch dimension
func (b *Batch) Len() int {
	return len(b.Subset)
}

// Length returns the padded sequence length of the batch
func (b *Batch) Length() int {
	return b.Sequences.Dims[1]
}

// Slice returns batch entries [from, to) sharing storage with b
func (b *Batch) Slice(from, to int) *Batch {
	return &Batch{
		Sequences: b.Sequences.Slice(from, to),
		Mask:      b.Mask.Slice(from, to),
		Subset:    b.Subset[from:to],
		Labels:    b.Labels[from:to],
		Indices:   b.Indices[from:to],
		Symbols:   b.Symbols[from:to],
	}
}

// Terminate returns a copy of raw with the terminal symbol appended
func Terminate(raw []Symbol) []Symbol {
	var seq = make([]Symbol, len(raw)+1)
	copy(seq, raw)
	seq[len(raw)] = Terminal
	return seq
}

// Pad pads every row to the longest row using the terminal symbol as pad value
func Pad(rows [][]Symbol) [][]Symbol {
	var length int
	for _, r := range rows {
		if len(r) > length {
			length = len(r)
		}
	}
	var o = make([][]Symbol, len(rows))
	for i, r := range rows {
		o[i] = make([]Symbol, length)
		n := copy(o[i], r)
		for j := n; j < length; j++ {
			o[i][j] = Terminal
		}
	}
	return o
}

// OneHot encodes equally long padded rows and derives the standard amino acid mask
func OneHot(padded [][]Symbol) (seqs, mask tensor.D3) {
	var length int
	if len(padded) > 0 {
		length = len(padded[0])
	}
	seqs = tensor.NewD3(len(padded), length, AlphabetSize)
	mask = tensor.NewD3(len(padded), length, 1)
	for i, row := range padded {
		for j, s := range row {
			seqs.Set(i, j, int(s), 1)
			if s.IsStandard() {
				mask.Set(i, j, 0, 1)
			}
		}
	}
	return
}
