package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// stubResponse 是门户模拟器对某个路径的一次应答。
type stubResponse struct {
	status int
	header map[string]string
	body   []byte
}

func ok(body string) stubResponse {
	return stubResponse{status: http.StatusOK, body: []byte(body)}
}

// recordedRequest 捕获每次请求的路径与请求头，便于断言抓取行为。
type recordedRequest struct {
	Path    string
	Query   string
	Headers http.Header
}

// portalStub 模拟数据门户：每个路径按顺序返回预置应答，最后一个应答重复使用。
type portalStub struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string][]stubResponse
	requests  []recordedRequest
}

func newPortalStub(t *testing.T) *portalStub {
	t.Helper()
	stub := &portalStub{responses: make(map[string][]stubResponse)}
	stub.Server = httptest.NewServer(http.HandlerFunc(stub.serve))
	t.Cleanup(stub.Close)
	return stub
}

func (s *portalStub) handle(path string, responses ...stubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = responses
}

func (s *portalStub) serve(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
	})
	queue := s.responses[r.URL.Path]
	var resp stubResponse
	switch len(queue) {
	case 0:
		resp = stubResponse{status: http.StatusNotFound, body: []byte("not found")}
	case 1:
		resp = queue[0]
	default:
		resp = queue[0]
		s.responses[r.URL.Path] = queue[1:]
	}
	s.mu.Unlock()

	for k, v := range resp.header {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// hits 返回某个路径被请求的记录。
func (s *portalStub) hits(path string) []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedRequest
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}
