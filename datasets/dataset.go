// Package datasets implements the sequence store and the batch pipeline that
// turns variable-length symbol sequences into padded, masked, one-hot batches.
package datasets

import "fmt"

// Symbol is the integer code of one sequence position
type Symbol uint8

// Alphabet lists the amino acid letters in symbol order. The first
// StandardAminoAcids letters are the canonical amino acids, the rest are
// ambiguous or extended codes.
const Alphabet = "ARNDCQEGHILKMFPSTWYVBZJX"

const (
	// StandardAminoAcids is the number of canonical amino acids
	StandardAminoAcids = 20

	// AlphabetSize is S, the one-hot width: every letter plus the terminal symbol
	AlphabetSize = len(Alphabet) + 1

	// Terminal is the symbol appended to every sequence; it is also the pad value
	Terminal = Symbol(AlphabetSize - 1)

	// Unknown is the symbol used for letters outside the alphabet
	Unknown = Symbol(len(Alphabet) - 1)
)

var letterToSymbol = func() (o [256]int16) {
	for i := range o {
		o[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		o[Alphabet[i]] = int16(i)
		o[Alphabet[i]|0x20] = int16(i)
	}
	return
}()

// IsStandard reports whether s is one of the canonical amino acids
func (s Symbol) IsStandard() bool {
	return int(s) < StandardAminoAcids
}

// String returns the letter of s, or "$" for the terminal symbol
func (s Symbol) String() string {
	switch {
	case s == Terminal:
		return "$"
	case int(s) < len(Alphabet):
		return Alphabet[s : s+1]
	default:
		return fmt.Sprintf("Symbol(%d)", uint8(s))
	}
}

// Encode converts letters to symbols. Gap characters '-' and '.' are dropped,
// lowercase is folded, and unknown letters map to Unknown.
func Encode(letters string) []Symbol {
	var o = make([]Symbol, 0, len(letters))
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		switch c {
		case '-', '.', ' ', '\t', '\r', '\n':
			continue
		}
		if s := letterToSymbol[c]; s >= 0 {
			o = append(o, Symbol(s))
		} else {
			o = append(o, Unknown)
		}
	}
	return o
}

// Decode converts symbols back to letters
func Decode(seq []Symbol) string {
	var o = make([]byte, 0, len(seq))
	for _, s := range seq {
		o = append(o, s.String()[0])
	}
	return string(o)
}
