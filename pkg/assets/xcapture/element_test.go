package xcapture

import "sync"

// fakeElement 测试用的 Element 实现。
type fakeElement struct {
	mu    sync.Mutex
	id    string
	kind  Kind
	src   string
	attrs map[string]string
	sets  []string
}

func newFakeElement(id string, kind Kind, src string) *fakeElement {
	return &fakeElement{id: id, kind: kind, src: src, attrs: make(map[string]string)}
}

func (e *fakeElement) ID() string { return e.id }
func (e *fakeElement) Kind() Kind { return e.kind }

func (e *fakeElement) SourceURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *fakeElement) SetSourceURL(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = url
	e.sets = append(e.sets, url)
}

func (e *fakeElement) Attr(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}
