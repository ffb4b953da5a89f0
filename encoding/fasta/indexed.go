package fasta

import (
	"bufio"
	"bytes"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// IndexSuffix is appended to a FASTA path to name its index.
const IndexSuffix = ".fai"

// faiRow is one line of a samtools faidx index.
type faiRow struct {
	Name      string
	Length    int64
	Offset    int64
	LineBases int64
	LineWidth int64
}

type indexedFasta struct {
	mu      sync.Mutex
	r       io.ReadSeeker
	entries map[string]faiRow
	names   []string
	buf     []byte // file bytes starting at bufOff
	bufOff  int64
}

// readIndex parses a samtools faidx index.
func readIndex(index io.Reader) ([]faiRow, error) {
	r := tsv.NewReader(index)
	var rows []faiRow
	for {
		var row faiRow
		err := r.Read(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed FASTA index")
		}
		if row.Length > 0 && (row.LineBases <= 0 || row.LineWidth < row.LineBases) {
			return nil, errors.Errorf("malformed FASTA index entry for %s: %d bases in %d-byte lines",
				row.Name, row.LineBases, row.LineWidth)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NewIndexed creates a Fasta that reads sequence from fa on demand, using a
// samtools faidx index.  Only the index is held in memory.
func NewIndexed(fa io.ReadSeeker, index io.Reader) (Fasta, error) {
	rows, err := readIndex(index)
	if err != nil {
		return nil, err
	}
	f := &indexedFasta{r: fa, entries: make(map[string]faiRow, len(rows))}
	for _, row := range rows {
		if _, ok := f.entries[row.Name]; ok {
			return nil, errors.Errorf("duplicate sequence name in index: %s", row.Name)
		}
		f.entries[row.Name] = row
		f.names = append(f.names, row.Name)
	}
	sort.SliceStable(f.names, func(i, j int) bool {
		return f.entries[f.names[i]].Offset < f.entries[f.names[j]].Offset
	})
	return f, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return uint64(e.Length), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.names
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(e.Length) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, e.Length)
	}
	// Byte position of base i is Offset + i + (i/LineBases)*(line terminator).
	pos := func(i int64) int64 {
		return e.Offset + i + (i/e.LineBases)*(e.LineWidth-e.LineBases)
	}
	first, last := pos(int64(start)), pos(int64(end-1))

	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := f.read(first, int(last-first+1))
	if err != nil {
		return "", errors.Wrapf(err, "read %s:%d-%d", seqName, start, end)
	}
	out := make([]byte, 0, end-start)
	for _, b := range raw {
		if b != '\n' && b != '\r' {
			out = append(out, b)
		}
	}
	if uint64(len(out)) != end-start {
		return "", errors.Errorf("FASTA data for %s does not match its index", seqName)
	}
	return string(out), nil
}

// read returns the n file bytes at off.  Recently read bytes are cached.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	if off >= f.bufOff && off+int64(n) <= f.bufOff+int64(len(f.buf)) {
		return f.buf[off-f.bufOff : off-f.bufOff+int64(n)], nil
	}
	size := 8192
	if size < n {
		size = n
	}
	if cap(f.buf) < size {
		f.buf = make([]byte, size)
	}
	f.buf = f.buf[:size]
	if _, err := f.r.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	got, err := io.ReadFull(f.r, f.buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	f.buf, f.bufOff = f.buf[:got], off
	if got < n {
		return nil, errors.Errorf("unexpected end of FASTA data at offset %d", off+int64(got))
	}
	return f.buf[:n], nil
}

// GenerateIndex writes a samtools faidx index of the FASTA data in to out.
// Every record must use one line length, except for its last line.
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		w    = tsv.NewWriter(out)
		r    = bufio.NewReader(in)
		cur  *faiRow
		off  int64
		last bool // cur has seen a short line
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		w.WriteString(cur.Name)
		w.WriteInt64(cur.Length)
		w.WriteInt64(cur.Offset)
		w.WriteInt64(cur.LineBases)
		w.WriteInt64(cur.LineWidth)
		return w.EndLine()
	}
	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "couldn't read FASTA data")
		}
		off += int64(len(line))
		bases := bytes.TrimRight(line, "\r\n")
		switch {
		case len(bases) > 0 && bases[0] == '>':
			if e := flush(); e != nil {
				return e
			}
			name := strings.Split(string(bases[1:]), " ")[0]
			if name == "" {
				return errors.Errorf("malformed FASTA file: empty sequence name")
			}
			cur, last = &faiRow{Name: name, Offset: off}, false
		case len(bases) > 0:
			if cur == nil {
				return errors.Errorf("malformed FASTA file: sequence data before the first header")
			}
			if cur.LineBases == 0 {
				cur.LineBases, cur.LineWidth = int64(len(bases)), int64(len(line))
			} else if last || int64(len(bases)) > cur.LineBases {
				return errors.Errorf("FASTA record %s has uneven line lengths", cur.Name)
			}
			if int64(len(bases)) < cur.LineBases {
				last = true
			}
			cur.Length += int64(len(bases))
		}
		if err == io.EOF {
			break
		}
	}
	if cur == nil {
		return errors.Errorf("empty FASTA file")
	}
	if err := flush(); err != nil {
		return err
	}
	return w.Flush()
}
