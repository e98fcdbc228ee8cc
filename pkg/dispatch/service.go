package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jdziat/simple-form-actions/pkg/binder"
	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

// Service describes an action target: how to construct it from query
// parameters and which of its methods are callable.
type Service struct {
	name    string
	ctor    *binder.Func
	methods map[string]*binder.Func
	mu      sync.RWMutex
}

// NewService creates a service named name. ctor builds the target from the
// declared constructor parameters and must have signature
// func([ctx context.Context,] args...) (T, error).
func NewService(name string, ctor any, params ...core.Param) (*Service, error) {
	if err := security.ValidateTypeName(name); err != nil {
		return nil, core.Misconfigured(name, err)
	}
	c, err := binder.NewConstructor(ctor, params...)
	if err != nil {
		return nil, err
	}
	return &Service{
		name:    name,
		ctor:    c,
		methods: make(map[string]*binder.Func),
	}, nil
}

// MustService is like NewService but panics on error.
func MustService(name string, ctor any, params ...core.Param) *Service {
	s, err := NewService(name, ctor, params...)
	if err != nil {
		panic(fmt.Sprintf("actions: %v", err))
	}
	return s
}

// Register makes a method callable. fn is a method expression such as
// (*Accounts).Create with one argument per declared parameter.
func (s *Service) Register(method string, fn any, params ...core.Param) error {
	op, err := binder.NewOperation(method, fn, params...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.methods[method]; exists {
		return core.Misconfigured(method, fmt.Errorf("method already registered on %s", s.name))
	}
	s.methods[method] = op
	return nil
}

// MustRegister is like Register but panics on error.
func (s *Service) MustRegister(method string, fn any, params ...core.Param) *Service {
	if err := s.Register(method, fn, params...); err != nil {
		panic(fmt.Sprintf("actions: %v", err))
	}
	return s
}

// Name returns the service name used in form signatures.
func (s *Service) Name() string {
	return s.name
}

// ConstructorParams returns the parameters read from the query string.
func (s *Service) ConstructorParams() []core.Param {
	return s.ctor.Params
}

// Method returns a registered method.
func (s *Service) Method(name string) (*binder.Func, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.methods[name]
	return op, ok
}

// Methods returns the registered method names, sorted.
func (s *Service) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) lookup(method string) (*binder.Func, error) {
	op, ok := s.Method(method)
	if !ok {
		return nil, core.Misconfigured(s.name+"."+method, core.ErrUnknownMethod)
	}
	return op, nil
}
