// Package compress 识别并解开上游返回的压缩载荷（gzip / zip / xz）。
// XLSX 工作簿本身是 zip 容器，按原样交给表格解析器。
package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

// Format 描述载荷的压缩方式。
type Format int

const (
	// Auto 按魔数自动识别。
	Auto Format = iota
	None
	Gzip
	Zip
	XZ
	// XLSX 声明载荷为 Office Open XML 工作簿，不做解压。
	XLSX
)

var formatNames = map[Format]string{
	Auto: "auto",
	None: "none",
	Gzip: "gzip",
	Zip:  "zip",
	XZ:   "xz",
	XLSX: "xlsx",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Ext 返回该格式常用的文件后缀。
func (f Format) Ext() string {
	switch f {
	case Gzip:
		return ".gz"
	case Zip:
		return ".zip"
	case XZ:
		return ".xz"
	case XLSX:
		return ".xlsx"
	}
	return ""
}

// ParseFormat 解析配置或描述符里的压缩名称。
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "none":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zip":
		return Zip, nil
	case "xz":
		return XZ, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return Auto, fmt.Errorf("unknown compression %q", name)
}

// ErrCorrupt 表示压缩流无法解开。
var ErrCorrupt = errors.New("compressed payload is corrupt")

var signatures = []struct {
	format Format
	magic  []byte
}{
	{Gzip, []byte{0x1f, 0x8b, 0x08}},
	{Zip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{XZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// Detect 通过魔数识别压缩格式，不消耗 reader。
func Detect(br *bufio.Reader) Format {
	head, _ := br.Peek(6)
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig.magic) {
			return sig.format
		}
	}
	return None
}

// NewReader 按格式返回解压后的流；Auto 时先识别魔数。声明为 gzip 但实际未压缩的载荷
// （部分镜像会透明解压）按原样返回。zip 仅读取第一个条目。
func NewReader(r io.Reader, format Format) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	detected := Detect(br)
	if format == Auto || (detected == None && format != XLSX) {
		format = detected
	}

	switch format {
	case XLSX:
		if detected != Zip {
			return nil, fmt.Errorf("%w: xlsx: payload is not a zip container", ErrCorrupt)
		}
		return io.NopCloser(br), nil
	case Gzip:
		zr, err := pgzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrCorrupt, err)
		}
		return zr, nil
	case Zip:
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, fmt.Errorf("%w: zip: %v", ErrCorrupt, err)
		}
		return io.NopCloser(zr), nil
	case XZ:
		xr, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %v", ErrCorrupt, err)
		}
		return io.NopCloser(xr), nil
	}
	return io.NopCloser(br), nil
}
