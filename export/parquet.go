package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"vastats/tabular"
)

// Metadata keys stamped on every Parquet file written by WriteParquet.
const (
	MetaRunID = "vastats.run_id"
	MetaJob   = "vastats.job"
)

// WriteParquet replaces path with the nonzero cells of t in long format and
// returns how many cells were written. Tables are small, so everything goes
// into a single row group.
func WriteParquet[R, C comparable](path, runID, job string, t tabular.Table[R, C]) (int, error) {
	cells := Cells(runID, job, t)
	var n int
	err := WriteFileAtomic(path, func(out io.Writer) error {
		w := parquet.NewGenericWriter[Cell](out,
			parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
			parquet.DataPageStatistics(true),
			parquet.KeyValueMetadata(MetaRunID, runID),
			parquet.KeyValueMetadata(MetaJob, job),
			parquet.CreatedBy("vastats", "1.0", ""),
		)
		written, err := w.Write(cells)
		n = written
		if err != nil {
			w.Close()
			return fmt.Errorf("write parquet cells: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close parquet writer: %w", err)
		}
		return nil
	})
	return n, err
}
