package datasets

import "bufio"
import "fmt"
import "io"
import "strings"

// ReadFasta reads FASTA records into a MemoryStore. Record identifiers are the
// first word of each header line.
func ReadFasta(r io.Reader) (*MemoryStore, error) {
	var s = new(MemoryStore)
	var cur strings.Builder
	var open bool
	flush := func() {
		if open {
			s.seqs = append(s.seqs, Encode(cur.String()))
			cur.Reset()
		}
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' {
			continue
		}
		if text[0] == '>' {
			flush()
			open = true
			id := strings.TrimSpace(text[1:])
			if f := strings.Fields(id); len(f) > 0 {
				id = f[0]
			}
			s.ids = append(s.ids, id)
			continue
		}
		if !open {
			return nil, fmt.Errorf("fasta line %d: sequence data before first header", line)
		}
		cur.WriteString(text)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return s, nil
}
