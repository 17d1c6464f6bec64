package cache

import (
	"encoding/binary"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// digestBytes 为文件名中摘要的字节数（十六进制后为 16 个字符）。
const digestBytes = 8

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Param 是参与缓存键计算的一个命名参数。
type Param struct {
	Name  string
	Value string
}

// Key 唯一标识一个缓存条目：资源名 + 按名称排序的参数。
type Key struct {
	Resource string
	Params   []Param
}

// NewKey 构造 Key，参数按名称排序，保证相同的逻辑参数得到相同的键。
func NewKey(resource string, params ...Param) Key {
	sorted := append([]Param(nil), params...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Key{Resource: resource, Params: sorted}
}

// Digest 对资源名与参数做长度前缀编码后取 blake2b-256 摘要，避免拼接歧义。
func (k Key) Digest() string {
	h, _ := blake2b.New256(nil)
	writeField := func(s string) {
		var lenBuf [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:n])
		h.Write([]byte(s))
	}
	writeField(k.Resource)
	for _, p := range k.Params {
		writeField(p.Name)
		writeField(p.Value)
	}
	return hex.EncodeToString(h.Sum(nil)[:digestBytes])
}

// FileName 返回 "<resource>.<value>...<digest><ext>"，可读部分经过清洗，唯一性由摘要保证。
func (k Key) FileName(ext string) string {
	parts := make([]string, 0, len(k.Params)+2)
	parts = append(parts, sanitize(k.Resource))
	for _, p := range k.Params {
		if v := sanitize(p.Value); v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, k.Digest())
	return strings.Join(parts, ".") + ext
}

// RelPath 返回相对缓存根目录的 URL 风格路径。
func (k Key) RelPath(ext string) string {
	return path.Join(sanitize(k.Resource), k.FileName(ext))
}

// String 以 query 形式展示键，供日志使用。
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	values := make([]string, len(k.Params))
	for i, p := range k.Params {
		values[i] = url.QueryEscape(p.Name) + "=" + url.QueryEscape(p.Value)
	}
	return k.Resource + "?" + strings.Join(values, "&")
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
	return strings.Trim(s, ".")
}
