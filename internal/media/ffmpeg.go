package media

import (
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

const (
	SampleRate = 48000
	Channels   = 2
)

// FFmpeg decodes any URL ffmpeg understands into raw PCM on stdout.
type FFmpeg struct {
	Path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

func (f *FFmpeg) args(url string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-f", TypeRawPCM,
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "warning",
		"pipe:1",
	}
}

// Open starts ffmpeg for url. The context only bounds startup; the returned
// stream lives until it is closed or ffmpeg exits.
func (f *FFmpeg) Open(ctx context.Context, url string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(f.Path, f.args(url)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", f.Path)
	}

	proc := &process{ReadCloser: stdout, cmd: cmd, stderrDone: make(chan struct{})}
	// ffmpeg blocks if nobody reads stderr
	go proc.drainStderr(stderr)

	return &Stream{ReadCloser: proc, Type: TypeRawPCM}, nil
}

const stderrTail = 512

// process is ffmpeg's stdout. Reaching EOF reaps the process: a non-zero exit
// that Close did not cause is returned instead of EOF.
type process struct {
	io.ReadCloser
	cmd *exec.Cmd

	killed     atomic.Bool
	closeOnce  sync.Once
	waitOnce   sync.Once
	waitErr    error
	stderrDone chan struct{}

	mu   sync.Mutex
	tail []byte // last bytes of stderr
}

func (p *process) Read(b []byte) (int, error) {
	n, err := p.ReadCloser.Read(b)
	if err == io.EOF && !p.killed.Load() {
		if werr := p.wait(); werr != nil && !p.killed.Load() {
			return n, errors.Mark(errors.Wrapf(werr, "ffmpeg exited: %s", p.stderr()), ErrDecoder)
		}
	}
	return n, err
}

func (p *process) Close() error {
	p.closeOnce.Do(func() {
		p.killed.Store(true)
		_ = p.cmd.Process.Kill()
		_ = p.ReadCloser.Close()
		_ = p.wait()
	})
	return nil
}

func (p *process) wait() error {
	p.waitOnce.Do(func() {
		<-p.stderrDone
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

func (p *process) drainStderr(r io.Reader) {
	defer close(p.stderrDone)
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p.mu.Lock()
			p.tail = append(p.tail, buf[:n]...)
			if len(p.tail) > stderrTail {
				p.tail = p.tail[len(p.tail)-stderrTail:]
			}
			p.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (p *process) stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := strings.TrimSpace(string(p.tail))
	if s == "" {
		return "no output"
	}
	return s
}
