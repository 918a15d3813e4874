package testsupport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"sync"

	"framepress/internal/engine"
)

// ExecCall is the view a FakeEngine exec handler gets of one command.
type ExecCall struct {
	Args   []string
	engine *FakeEngine
}

// Input returns a virtual file's content.
func (c ExecCall) Input(name string) ([]byte, bool) {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	data, ok := c.engine.files[name]
	return data, ok
}

// Output writes a virtual file, as an encoder would for its output argument.
func (c ExecCall) Output(name string, data []byte) {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	c.engine.files[name] = append([]byte(nil), data...)
}

// Log emits a diagnostic line to the engine's log listeners.
func (c ExecCall) Log(line string) {
	c.engine.emitLog(line)
}

// Progress emits a progress event to the engine's progress listeners.
func (c ExecCall) Progress(ratio float64) {
	c.engine.emitProgress(engine.Progress{Ratio: ratio})
}

// LastArg returns the final argument, conventionally the output file.
func (c ExecCall) LastArg() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// ArgAfter returns the argument following flag, or "" if absent.
func (c ExecCall) ArgAfter(flag string) string {
	idx := slices.Index(c.Args, flag)
	if idx < 0 || idx+1 >= len(c.Args) {
		return ""
	}
	return c.Args[idx+1]
}

// FakeEngine is an in-memory engine.Engine for tests.
type FakeEngine struct {
	// InitErr fails Initialize.
	InitErr error
	// InitBlock, when non-nil, holds Initialize until closed or the context ends.
	InitBlock chan struct{}
	// InitProgress ratios are emitted during Initialize.
	InitProgress []float64
	// ExecFunc handles Exec. A nil ExecFunc succeeds without output.
	ExecFunc func(ctx context.Context, call ExecCall) error

	mu          sync.Mutex
	files       map[string][]byte
	logs        map[int]func(string)
	progress    map[int]func(engine.Progress)
	nextID      int
	calls       [][]string
	initialized bool
	closed      int
	assets      engine.Assets
}

// NewFakeEngine returns an empty fake engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		files:    map[string][]byte{},
		logs:     map[int]func(string){},
		progress: map[int]func(engine.Progress){},
	}
}

func (e *FakeEngine) Initialize(ctx context.Context, assets engine.Assets) error {
	for _, ratio := range e.InitProgress {
		e.emitProgress(engine.Progress{Ratio: ratio})
	}
	if e.InitBlock != nil {
		select {
		case <-e.InitBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if e.InitErr != nil {
		return e.InitErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = true
	e.assets = assets
	return nil
}

func (e *FakeEngine) WriteFile(name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return err
	}
	e.files[name] = append([]byte(nil), data...)
	return nil
}

func (e *FakeEngine) ReadFile(name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return nil, err
	}
	data, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (e *FakeEngine) DeleteFile(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return err
	}
	if _, ok := e.files[name]; !ok {
		return fmt.Errorf("delete %s: %w", name, fs.ErrNotExist)
	}
	delete(e.files, name)
	return nil
}

func (e *FakeEngine) Exec(ctx context.Context, args []string) error {
	e.mu.Lock()
	if err := e.usableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.calls = append(e.calls, append([]string(nil), args...))
	handler := e.ExecFunc
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if handler == nil {
		return nil
	}
	return handler(ctx, ExecCall{Args: args, engine: e})
}

func (e *FakeEngine) OnLog(listener func(string)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.logs[id] = listener
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.logs, id)
	}
}

func (e *FakeEngine) OnProgress(listener func(engine.Progress)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.progress[id] = listener
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.progress, id)
	}
}

func (e *FakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	e.files = map[string][]byte{}
	return nil
}

// Files lists the virtual files currently present, sorted.
func (e *FakeEngine) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.files))
	for name := range e.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calls returns the argument lists of every Exec call so far.
func (e *FakeEngine) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.calls))
	for i, call := range e.calls {
		out[i] = append([]string(nil), call...)
	}
	return out
}

// Listeners reports the number of attached log and progress listeners.
func (e *FakeEngine) Listeners() (logs, progress int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.logs), len(e.progress)
}

// Closed reports how many times Close was called.
func (e *FakeEngine) Closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Initialized reports whether Initialize succeeded.
func (e *FakeEngine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Assets returns the payload passed to Initialize.
func (e *FakeEngine) Assets() engine.Assets {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assets
}

func (e *FakeEngine) usableLocked() error {
	if e.closed > 0 {
		return errors.New("fake engine closed")
	}
	if !e.initialized {
		return errors.New("fake engine not initialized")
	}
	return nil
}

func (e *FakeEngine) emitLog(line string) {
	e.mu.Lock()
	listeners := make([]func(string), 0, len(e.logs))
	for _, id := range sortedKeys(e.logs) {
		listeners = append(listeners, e.logs[id])
	}
	e.mu.Unlock()
	for _, listener := range listeners {
		listener(line)
	}
}

func (e *FakeEngine) emitProgress(p engine.Progress) {
	e.mu.Lock()
	listeners := make([]func(engine.Progress), 0, len(e.progress))
	for _, id := range sortedKeys(e.progress) {
		listeners = append(listeners, e.progress[id])
	}
	e.mu.Unlock()
	for _, listener := range listeners {
		listener(p)
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// FakeFactory builds FakeEngines and remembers them.
type FakeFactory struct {
	// Configure, when set, customizes each engine before it is returned.
	Configure func(index int, e *FakeEngine)
	// Err fails construction.
	Err error

	mu    sync.Mutex
	built []*FakeEngine
}

// Build implements engine.Factory.
func (f *FakeFactory) Build() (engine.Engine, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	e := NewFakeEngine()
	f.mu.Lock()
	index := len(f.built)
	f.built = append(f.built, e)
	f.mu.Unlock()
	if f.Configure != nil {
		f.Configure(index, e)
	}
	return e, nil
}

// Built returns every engine constructed so far.
func (f *FakeFactory) Built() []*FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeEngine(nil), f.built...)
}

// Last returns the most recently built engine, or nil.
func (f *FakeFactory) Last() *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

// NewReadyManager returns a manager over a FakeFactory whose engines are
// configured by configure, already brought to StateReady.
func NewReadyManager(ctx context.Context, configure func(e *FakeEngine)) (*engine.Manager, *FakeFactory, error) {
	factory := &FakeFactory{}
	if configure != nil {
		factory.Configure = func(_ int, e *FakeEngine) { configure(e) }
	}
	fetcher := &StaticFetcher{Assets: engine.Assets{Core: []byte("core"), Backend: []byte("backend")}}
	manager := engine.NewManager(fetcher, factory.Build, nil)
	if err := manager.EnsureReady(ctx); err != nil {
		return nil, nil, err
	}
	return manager, factory, nil
}
