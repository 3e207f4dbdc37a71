// Package csvstream presents an ordered list of delimited files as one
// single-pass stream of rows.
package csvstream

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingInputFile is returned when an input path does not exist. The
// underlying fs.ErrNotExist stays in the chain.
var ErrMissingInputFile = errors.New("missing input file")

const bufferSize = 256 * 1024

// Progress describes the position of the row about to be returned.
type Progress struct {
	File  int   // 0-based index into the input paths
	Files int   // number of input paths
	Line  int64 // 1-based line within the file, header is line 1
	Row   int64 // 1-based data row across all files
	Total int64 // pre-counted data rows, -1 when unknown
}

type ProgressFunc func(Progress)

// MultiReader streams the data rows of several files in order. Each file's
// header is consumed, never yielded. Not safe for concurrent use.
type MultiReader struct {
	paths    []string
	next     int
	cur      *fileReader
	row      int64
	total    int64
	progress ProgressFunc
}

// Open checks that every path exists and pre-counts the data rows. A missing
// path fails with ErrMissingInputFile; a failing pre-count only makes the
// total unknown.
func Open(paths ...string) (*MultiReader, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %w", ErrMissingInputFile, err)
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return &MultiReader{
		paths: append([]string(nil), paths...),
		total: countRows(paths),
	}, nil
}

// OnProgress installs fn, called once before each row is returned.
func (m *MultiReader) OnProgress(fn ProgressFunc) {
	m.progress = fn
}

// Total returns the pre-counted number of data rows. ok is false when the
// count could not be taken.
func (m *MultiReader) Total() (int64, bool) {
	return m.total, m.total >= 0
}

// Rows returns the number of rows returned so far.
func (m *MultiReader) Rows() int64 {
	return m.row
}

// Next returns the next data row, or io.EOF once every file is exhausted.
func (m *MultiReader) Next() (Row, error) {
	for {
		if m.cur == nil {
			if m.next >= len(m.paths) {
				return Row{}, io.EOF
			}
			fr, err := openFile(m.paths[m.next])
			if err != nil {
				return Row{}, err
			}
			m.cur = fr
			m.next++
		}

		values, line, err := m.cur.read()
		if err == io.EOF {
			if err := m.cur.Close(); err != nil {
				return Row{}, fmt.Errorf("close %s: %w", m.cur.path, err)
			}
			m.cur = nil
			continue
		}
		if err != nil {
			return Row{}, fmt.Errorf("read %s line %d: %w", m.cur.path, line, err)
		}

		m.row++
		if m.progress != nil {
			m.progress(Progress{
				File:  m.next - 1,
				Files: len(m.paths),
				Line:  line,
				Row:   m.row,
				Total: m.total,
			})
		}
		return Row{header: m.cur.header, values: values}, nil
	}
}

// Close releases the file currently being read. Remaining files are never
// opened.
func (m *MultiReader) Close() error {
	m.next = len(m.paths)
	if m.cur == nil {
		return nil
	}
	err := m.cur.Close()
	m.cur = nil
	return err
}

type fileReader struct {
	path   string
	file   *os.File
	gz     *gzip.Reader
	reader *csv.Reader
	header *header
}

func openFile(path string) (*fileReader, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrMissingInputFile, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	fr := &fileReader{path: path, file: file}
	src, err := fr.source()
	if err != nil {
		file.Close()
		return nil, err
	}

	reader := csv.NewReader(src)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if delimiterFor(path) == '\t' {
		reader.Comma = '\t'
	}
	fr.reader = reader

	cols, err := reader.Read()
	if err == io.EOF {
		fr.header = newHeader(nil)
		return fr, nil
	}
	if err != nil {
		fr.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	fr.header = newHeader(cols)
	return fr, nil
}

// source wraps the file in a buffered, optionally gunzipped reader with any
// UTF-8 BOM skipped.
func (fr *fileReader) source() (io.Reader, error) {
	r := bufio.NewReaderSize(fr.file, bufferSize)
	if isGzip(fr.path) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", fr.path, err)
		}
		fr.gz = gz
		r = bufio.NewReaderSize(gz, bufferSize)
	}

	bom, err := r.Peek(3)
	if err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		r.Discard(3)
	}
	return r, nil
}

// read returns the next non-blank record and the line it started on.
func (fr *fileReader) read() ([]string, int64, error) {
	for {
		record, err := fr.reader.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, int64(perr.StartLine), err
			}
			return nil, 0, err
		}
		if len(record) == 0 {
			continue
		}
		line, _ := fr.reader.FieldPos(0)
		return record, int64(line), nil
	}
}

func (fr *fileReader) Close() error {
	if fr.gz != nil {
		fr.gz.Close()
	}
	return fr.file.Close()
}

func isGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}

func delimiterFor(path string) rune {
	base := path
	if isGzip(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if strings.EqualFold(filepath.Ext(base), ".tsv") {
		return '\t'
	}
	return ','
}

// countRows pre-counts data rows as lines minus one header per file. It
// returns -1 if any file cannot be counted.
func countRows(paths []string) int64 {
	var total int64
	for _, p := range paths {
		n, err := countLines(p)
		if err != nil {
			return -1
		}
		if n > 0 {
			total += n - 1
		}
	}
	return total
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if isGzip(path) {
		gz, err := gzip.NewReader(bufio.NewReaderSize(f, bufferSize))
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		r = gz
	}

	buf := make([]byte, bufferSize)
	var lines int64
	var last byte = '\n'
	for {
		n, err := r.Read(buf)
		if n > 0 {
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		lines++
	}
	return lines, nil
}
