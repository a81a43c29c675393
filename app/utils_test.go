package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mandelsoft/vfs/pkg/memoryfs"

	actx "go.hackfix.me/sieve/app/context"
	"go.hackfix.me/sieve/db"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func timeNowFn() time.Time {
	return timeNow
}

// testApp runs the app against an in-memory filesystem and database, and
// captures its output streams.
type testApp struct {
	*App
	stdout, stderr *hookWriter
	env            *mockEnv
}

func newTestApp(ctx context.Context) (*testApp, error) {
	// A unique shared-cache DB per app, since a plain :memory: DB is only
	// visible to a single connection.
	d, err := db.Open(ctx,
		fmt.Sprintf("file:sieve-%s?mode=memory&cache=shared", uuid.NewString()), timeNowFn)
	if err != nil {
		return nil, err
	}

	stdout, stderr := newHookWriter(ctx), newHookWriter(ctx)
	env := &mockEnv{env: map[string]string{}}
	app, err := New("sieve", "/config.json", "/data",
		WithTimeNow(timeNowFn),
		WithEnv(env),
		WithDB(d),
		WithContext(ctx),
		WithFDs(strings.NewReader(""), stdout, stderr),
		WithFS(memoryfs.New()),
		WithLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	return &testApp{App: app, stdout: stdout, stderr: stderr, env: env}, nil
}

// Run runs the app with args. The output of the command replaces the previous
// contents of stdout and stderr.
func (ta *testApp) Run(args ...string) error {
	err := ta.App.Run(args)
	ta.stdout.flush()
	ta.stderr.flush()

	return err
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

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

// hookWriter is an io.Writer that buffers the output of the running command,
// and notifies subscribers of every write. This allows tests to react to the
// output of long running commands such as serve.
type hookWriter struct {
	ctx  context.Context
	mx   sync.Mutex
	cur  bytes.Buffer // written to during a command
	last bytes.Buffer // output of the last command
	subs []chan []byte
}

func newHookWriter(ctx context.Context) *hookWriter {
	return &hookWriter{ctx: ctx}
}

func (hw *hookWriter) Write(p []byte) (int, error) {
	hw.mx.Lock()
	n, err := hw.cur.Write(p)
	subs := hw.subs
	hw.mx.Unlock()

	// Subscribers that stopped listening are skipped.
	data := bytes.Clone(p)
	for _, s := range subs {
		select {
		case s <- data:
		default:
		}
	}

	return n, err
}

// waitFor sends to wCh the submatch at matchIdx of the first write matching
// the rxPat regular expression.
func (hw *hookWriter) waitFor(rxPat string, matchIdx int, wCh chan<- string) {
	rx := regexp.MustCompile(rxPat)
	ch := make(chan []byte, 10)

	hw.mx.Lock()
	hw.subs = append(hw.subs, ch)
	hw.mx.Unlock()

	go func() {
		for {
			select {
			case d := <-ch:
				match := rx.FindStringSubmatch(string(d))
				if len(match) > matchIdx {
					select {
					case wCh <- match[matchIdx]:
					case <-hw.ctx.Done():
					}
					return
				}
			case <-hw.ctx.Done():
				return
			}
		}
	}()
}

func (hw *hookWriter) flush() {
	hw.mx.Lock()
	defer hw.mx.Unlock()
	hw.last.Reset()
	_, _ = io.Copy(&hw.last, &hw.cur)
}

func (hw *hookWriter) String() string {
	hw.mx.Lock()
	defer hw.mx.Unlock()
	return hw.last.String()
}

// newTestContext returns a context that times out after timeout, and an
// assertion handler that cancels the context and fails the test immediately
// if an assertion fails, to avoid waiting for the timeout.
func newTestContext(t *testing.T, timeout time.Duration) (
	ctx context.Context, cancelCtx func(), assertHandler func(bool),
) {
	ctx, cancelCtx = context.WithTimeout(t.Context(), timeout)
	assertHandler = func(success bool) {
		if !success {
			cancelCtx()
			t.FailNow()
		}
	}

	return
}

func initTestDB(appCtx *actx.Context) error {
	return appCtx.DB.Init("test", slog.New(slog.DiscardHandler))
}
