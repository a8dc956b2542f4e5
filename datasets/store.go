package datasets

import "github.com/neurlang/msahmm/errs"

// SequenceStore holds raw symbol sequences with random access by index.
// Get must be safe for concurrent use and must not append the terminal symbol.
type SequenceStore interface {

	// Count reports the number of sequences
	Count() int

	// Get returns the raw sequence at index i
	Get(i int) []Symbol
}

// MemoryStore is an immutable in-memory SequenceStore
type MemoryStore struct {
	ids  []string
	seqs [][]Symbol
}

// NewMemoryStore creates a store from already encoded sequences
func NewMemoryStore(seqs ...[]Symbol) *MemoryStore {
	var s = &MemoryStore{seqs: make([][]Symbol, len(seqs))}
	for i, seq := range seqs {
		s.seqs[i] = append([]Symbol(nil), seq...)
	}
	return s
}

// NewMemoryStoreStrings creates a store by encoding letter strings
func NewMemoryStoreStrings(letters ...string) *MemoryStore {
	var s = &MemoryStore{seqs: make([][]Symbol, len(letters))}
	for i, l := range letters {
		s.seqs[i] = Encode(l)
	}
	return s
}

// Count reports the number of sequences
func (s *MemoryStore) Count() int {
	return len(s.seqs)
}

// Get returns the raw sequence at index i
func (s *MemoryStore) Get(i int) []Symbol {
	return s.seqs[i]
}

// ID returns the record identifier of sequence i, empty when unknown
func (s *MemoryStore) ID(i int) string {
	if i < len(s.ids) {
		return s.ids[i]
	}
	return ""
}

// CheckIndices returns an IndexError for the first index outside [0, store.Count())
func CheckIndices(store SequenceStore, indices []int) error {
	n := store.Count()
	for _, i := range indices {
		if i < 0 || i >= n {
			return errs.Index("sequence index %d outside [0, %d)", i, n)
		}
	}
	return nil
}

// AllIndices returns [0, store.Count())
func AllIndices(store SequenceStore) []int {
	var o = make([]int, store.Count())
	for i := range o {
		o[i] = i
	}
	return o
}

// Groups assigns every distinct index a dense group id in order of first
// appearance. It returns the mapping and the number of distinct indices.
func Groups(indices []int) (map[int]int32, int) {
	var g = make(map[int]int32, len(indices))
	for _, i := range indices {
		if _, ok := g[i]; !ok {
			g[i] = int32(len(g))
		}
	}
	return g, len(g)
}
