// Package resourcetest 提供资源测试共用的假下载器。
package resourcetest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/klauspost/pgzip"
	"github.com/xuri/excelize/v2"

	"github.com/casskit/casskit/internal/fetch"
)

// Downloader 按 URL 返回预置响应，并记录调用。
type Downloader struct {
	mu       sync.Mutex
	bodies   map[string][]byte
	Requests []fetch.Request
}

// NewDownloader 返回空的假下载器。
func NewDownloader() *Downloader {
	return &Downloader{bodies: make(map[string][]byte)}
}

// Serve 为 url 预置响应体。
func (d *Downloader) Serve(url string, body []byte) *Downloader {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bodies[url] = body
	return d
}

// ServeGzip 预置 gzip 压缩后的响应体。
func (d *Downloader) ServeGzip(url string, body []byte) *Downloader {
	return d.Serve(url, Gzip(body))
}

// Calls 返回累计请求次数。
func (d *Downloader) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// Get implements fetch.Downloader；未预置的 URL 返回 404 对应的 ErrUnavailable。
func (d *Downloader) Get(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Requests = append(d.Requests, req)
	body, ok := d.bodies[req.URL]
	if !ok {
		return nil, &fetch.Error{
			Kind:     fetch.KindUnavailable,
			URL:      req.URL,
			Status:   http.StatusNotFound,
			Attempts: 1,
			Err:      fmt.Errorf("no fixture for %s", req.URL),
		}
	}
	return &fetch.Response{URL: req.URL, Status: http.StatusOK, Body: body, Attempts: 1}, nil
}

// Gzip 压缩 body。
func Gzip(body []byte) []byte {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, _ = zw.Write(body)
	_ = zw.Close()
	return buf.Bytes()
}

// Zip 将 body 打包为只含一个条目的 zip。
func Zip(name string, body []byte) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err == nil {
		_, _ = w.Write(body)
	}
	_ = zw.Close()
	return buf.Bytes()
}

// Workbook 生成只含 Sheet1 的 xlsx，rows 按顺序从 A1 开始写入。
func Workbook(rows ...[]interface{}) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		row := row
		_ = f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil
	}
	return buf.Bytes()
}
