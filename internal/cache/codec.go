package cache

import (
	"errors"
	"io"

	"github.com/klauspost/pgzip"

	"github.com/casskit/casskit/internal/table"
)

// Codec 是缓存条目的序列化/反序列化对。
type Codec interface {
	// Ext 为条目文件后缀，例如 ".tsv.gz"。
	Ext() string
	Encode(w io.Writer, t *table.Table) error
	Decode(r io.Reader) (*table.Table, error)
}

// GzipTSV 以 gzip 压缩的带表头 TSV 保存表格，是默认 Codec。
type GzipTSV struct{}

// Ext implements Codec.
func (GzipTSV) Ext() string { return ".tsv.gz" }

// Encode implements Codec.
func (GzipTSV) Encode(w io.Writer, t *table.Table) error {
	zw := pgzip.NewWriter(w)
	if err := table.Write(zw, t, '\t'); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decode implements Codec. 没有表头的条目同样视为损坏，因为空结果从不落盘。
func (GzipTSV) Decode(r io.Reader) (*table.Table, error) {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	t, err := table.Read(zr, table.ReadOptions{Separator: '\t'})
	if err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, errors.New("artifact has no header")
	}
	return t, nil
}
