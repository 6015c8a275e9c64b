package app

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/osfs"

	actx "go.hackfix.me/dbmap/app/context"
)

type testApp struct {
	*App
	stdin          io.Writer
	stdout, stderr *hookWriter
	env            *mockEnv
	dataDir        string
	flushOutputs   func()
}

// newTestApp returns an app storing its map in a temporary directory.
func newTestApp(ctx context.Context, t *testing.T, options ...Option) (*testApp, error) {
	var (
		dataDir          = t.TempDir()
		stdinR, stdinW   = io.Pipe()
		stdoutW, stderrW = newHookWriter(ctx), newHookWriter(ctx)
	)

	env := &mockEnv{env: map[string]string{}}
	opts := []Option{
		WithContext(ctx),
		WithFDs(stdinR, stdoutW, stderrW),
		WithFS(osfs.New()),
		WithLogger(false),
		WithEnv(env),
	}
	opts = append(opts, options...)
	app, err := New(dataDir, opts...)
	if err != nil {
		return nil, err
	}

	tapp := &testApp{
		App: app, stdout: stdoutW, stderr: stderrW,
		stdin: stdinW, env: env, dataDir: dataDir,
	}
	tapp.flushOutputs = func() {
		stdoutW.flush()
		stderrW.flush()
	}

	return tapp, nil
}

// Run runs the app with args. The outputs of the command are available in
// stdout and stderr until the next call.
func (ta *testApp) Run(args ...string) error {
	err := ta.App.Run(args)
	ta.flushOutputs()
	return err
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = &mockEnv{}

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}

// hookWriter is an io.Writer implementation that listens for writes and
// notifies subscribers when specific text is written.
type hookWriter struct {
	*bytes.Buffer               // main buffer read by tests
	tmp           *bytes.Buffer // temp buffer written to during each command
	tmpMx         sync.Mutex
	ctx           context.Context
	w             chan []byte
	mx            sync.RWMutex
	subs          []chan []byte
}

func newHookWriter(ctx context.Context) *hookWriter {
	hw := &hookWriter{
		Buffer: &bytes.Buffer{},
		tmp:    &bytes.Buffer{},
		ctx:    ctx,
		w:      make(chan []byte, 10),
		subs:   make([]chan []byte, 0),
	}

	go func() {
		for {
			select {
			case d := <-hw.w:
				hw.mx.RLock()
				for _, s := range hw.subs {
					select {
					case s <- d:
					case <-hw.ctx.Done():
					}
				}
				hw.mx.RUnlock()
			case <-hw.ctx.Done():
				return
			}
		}
	}()

	return hw
}

// waitFor starts a goroutine that listens to written data and writes to wCh
// if there's a match of the provided regex pattern.
// If matchIdx > 0, it writes the matched element at that index. This is useful
// for returning substrings.
func (hw *hookWriter) waitFor(rxPat string, matchIdx int, wCh chan string) {
	rx := regexp.MustCompile(rxPat)

	ch := make(chan []byte)
	hw.mx.Lock()
	hw.subs = append(hw.subs, ch)
	hw.mx.Unlock()

	go func() {
		matched := false
		for {
			select {
			case d := <-ch:
				// Keep draining after a match, so that writers never block.
				if matched {
					continue
				}
				match := rx.FindStringSubmatch(string(d))
				if len(match)-1 >= matchIdx {
					matched = true
					wCh <- match[matchIdx]
				}
			case <-hw.ctx.Done():
				return
			}
		}
	}()
}

func (hw *hookWriter) Write(p []byte) (n int, err error) {
	hw.tmpMx.Lock()
	n, err = hw.tmp.Write(p)
	hw.tmpMx.Unlock()
	if err != nil {
		return
	}

	d := make([]byte, len(p))
	copy(d, p)
	select {
	case hw.w <- d:
	case <-hw.ctx.Done():
	}
	return
}

// flush replaces the main buffer with the data written since the last flush.
func (hw *hookWriter) flush() {
	hw.tmpMx.Lock()
	defer hw.tmpMx.Unlock()

	hw.Reset()
	_, _ = hw.ReadFrom(hw.tmp)
	hw.tmp.Reset()
}

// newTestContext returns a context that times out after timeout, and an
// assertion handling function that cancels the context prematurely and fails
// the test if the assertion fails. This is done to avoid waiting for the
// context timeout to be reached.
func newTestContext(t *testing.T, timeout time.Duration) (
	ctx context.Context, cancelCtx func(), assertHandler func(bool),
) {
	ctx, cancelCtx = context.WithTimeout(context.Background(), timeout)
	assertHandler = func(success bool) {
		if !success {
			cancelCtx()
			t.FailNow()
		}
	}

	return
}
