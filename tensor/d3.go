// Package tensor implements the dense float32 rank-3 tensor used for batches
package tensor

import "fmt"

import "gonum.org/v1/gonum/blas/blas32"

// D3 is a dense row-major (batch, length, width) float32 tensor
type D3 struct {
	Dims [3]int
	Data []float32
}

// NewD3 allocates a zeroed tensor of the given shape
func NewD3(batch, length, width int) D3 {
	return D3{Dims: [3]int{batch, length, width}, Data: make([]float32, batch*length*width)}
}

// NewD3ZerosLike allocates a zeroed tensor with the shape of t
func NewD3ZerosLike(t D3) D3 {
	return NewD3(t.Dims[0], t.Dims[1], t.Dims[2])
}

// Shape returns the dimensions as a slice
func (t D3) Shape() []int {
	return []int{t.Dims[0], t.Dims[1], t.Dims[2]}
}

func (t D3) offset(i, j int) int {
	return (i*t.Dims[1] + j) * t.Dims[2]
}

// At returns element (i, j, k)
func (t D3) At(i, j, k int) float32 {
	return t.Data[t.offset(i, j)+k]
}

// Set sets element (i, j, k)
func (t D3) Set(i, j, k int, v float32) {
	t.Data[t.offset(i, j)+k] = v
}

// Row returns the width-long row at (i, j), sharing storage
func (t D3) Row(i, j int) []float32 {
	o := t.offset(i, j)
	return t.Data[o : o+t.Dims[2]]
}

// Matrix returns the (length, width) slice of batch entry i as a blas32 matrix view
func (t D3) Matrix(i int) blas32.General {
	o := t.offset(i, 0)
	return blas32.General{
		Rows:   t.Dims[1],
		Cols:   t.Dims[2],
		Stride: t.Dims[2],
		Data:   t.Data[o : o+t.Dims[1]*t.Dims[2]],
	}
}

// Slice returns batch entries [from, to) sharing storage
func (t D3) Slice(from, to int) D3 {
	return D3{
		Dims: [3]int{to - from, t.Dims[1], t.Dims[2]},
		Data: t.Data[t.offset(from, 0):t.offset(to, 0)],
	}
}

// Clone returns a deep copy
func (t D3) Clone() D3 {
	o := D3{Dims: t.Dims, Data: make([]float32, len(t.Data))}
	copy(o.Data, t.Data)
	return o
}

// SameShape reports an error when the shapes of t and o differ
func (t D3) SameShape(o D3) error {
	if t.Dims != o.Dims {
		return fmt.Errorf("shape mismatch %v != %v", t.Dims, o.Dims)
	}
	return nil
}
