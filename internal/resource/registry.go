package resource

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu          sync.RWMutex
	descriptors map[Name]*Descriptor
}

func newRegistry() *registry {
	return &registry{descriptors: make(map[Name]*Descriptor)}
}

// Register 将描述加入全局注册表，重复或未声明的名称会返回错误。
func Register(d Descriptor) error {
	return globalRegistry.register(d)
}

// MustRegister 在注册失败时 panic，适合资源子包 init() 中调用。
func MustRegister(d Descriptor) {
	if err := Register(d); err != nil {
		panic(err)
	}
}

// Lookup 返回指定名称的描述；未知名称返回 *UnknownResourceError。
func Lookup(name string) (*Descriptor, error) {
	return globalRegistry.lookup(name)
}

// List 返回按名称排序的描述列表。
func List() []*Descriptor {
	return globalRegistry.list()
}

// Names 返回所有已注册资源名，供诊断与错误提示使用。
func Names() []string {
	items := List()
	result := make([]string, len(items))
	for i, d := range items {
		result[i] = string(d.Name)
	}
	return result
}

// Validate 检查每个声明的名称都已注册。未声明的名称在注册时即被拒绝。
func Validate() error {
	var missing []string
	for _, name := range Declared() {
		if _, err := Lookup(string(name)); err != nil {
			missing = append(missing, string(name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("resources declared but not registered: %s", strings.Join(missing, ", "))
	}
	return nil
}

func normalizeName(name string) Name {
	return Name(strings.ToLower(strings.TrimSpace(name)))
}

func (r *registry) register(d Descriptor) error {
	name := normalizeName(string(d.Name))
	if name == "" {
		return fmt.Errorf("resource name is required")
	}
	if !isDeclared(name) {
		return fmt.Errorf("resource %s is not declared", name)
	}
	d.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[name]; exists {
		return fmt.Errorf("resource %s already registered", name)
	}
	r.descriptors[name] = &d
	return nil
}

func (r *registry) lookup(name string) (*Descriptor, error) {
	normalized := normalizeName(name)

	r.mu.RLock()
	d, ok := r.descriptors[normalized]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownResourceError{Name: name, Valid: r.names()}
	}
	return d, nil
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

func (r *registry) list() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.descriptors) == 0 {
		return nil
	}

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, string(name))
	}
	sort.Strings(names)

	result := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		result = append(result, r.descriptors[Name(name)])
	}
	return result
}
