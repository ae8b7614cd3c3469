package provider

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// defaultWorkerCommand is the local Kokoro inference CLI.
	defaultWorkerCommand = "kokoro-tts"

	// defaultWorkerTimeout bounds one synthesis run.
	defaultWorkerTimeout = 30 * time.Second

	// workerMaxTextSize keeps single inference runs bounded.
	workerMaxTextSize = 5000

	// workerKillGrace is how long the worker gets to exit after an
	// interrupt before the process group is killed.
	workerKillGrace = 100 * time.Millisecond
)

// Worker runs local speech inference as a fresh subprocess per synthesis
// with pre-configured stdin, so the child never races our write. Text goes
// in on stdin, WAV comes out on stdout.
type Worker struct {
	command string
	voice   string
	lang    string
	speed   float64
	timeout time.Duration
}

// WorkerConfig parameterizes the local worker.
type WorkerConfig struct {
	// Command is the inference binary. Defaults to kokoro-tts on PATH.
	Command string

	// Timeout bounds a single synthesis run.
	Timeout time.Duration
}

func newWorker(wc WorkerConfig, cfg Config) *Worker {
	if wc.Command == "" {
		wc.Command = defaultWorkerCommand
	}
	if wc.Timeout <= 0 {
		wc.Timeout = defaultWorkerTimeout
	}
	return &Worker{
		command: wc.Command,
		voice:   cfg.Voice,
		lang:    cfg.Language,
		speed:   cfg.Speed,
		timeout: wc.Timeout,
	}
}

// Available reports whether the worker binary can be found.
func (w *Worker) Available() bool {
	_, err := exec.LookPath(w.command)
	return err == nil
}

// Synthesize runs one inference pass.
func (w *Worker) Synthesize(ctx context.Context, text string) (Result, error) {
	if len(text) > workerMaxTextSize {
		return Result{}, &WorkerError{Message: fmt.Sprintf("text too long: %d characters (max %d)", len(text), workerMaxTextSize)}
	}

	args := []string{"-", "-", "--format", "wav"}
	if w.voice != "" {
		args = append(args, "--voice", w.voice)
	}
	if w.lang != "" {
		args = append(args, "--lang", w.lang)
	}
	if w.speed != 0 && w.speed != 1.0 {
		args = append(args, "--speed", fmt.Sprintf("%.2f", w.speed))
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, w.command, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Own process group so escalation can take down any children the
	// worker spawned.
	setWorkerProcAttr(cmd)

	jid := uuid.New().String()
	log.Debug("starting speech worker", "jid", jid, "command", w.command, "voice", w.voice)

	if err := cmd.Start(); err != nil {
		return Result{}, &WorkerError{Message: "failed to start", Cause: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return Result{}, &WorkerError{
				Message: "inference failed",
				Stderr:  tailOf(stderr.String()),
				Cause:   err,
			}
		}

	case <-ctx.Done():
		// Interrupt first, then kill the group.
		interruptWorker(cmd)
		select {
		case <-done:
		case <-time.After(workerKillGrace):
			killWorker(cmd)
			<-done
		}
		return Result{}, &WorkerError{Message: "inference timed out", Stderr: tailOf(stderr.String()), Cause: ctx.Err()}
	}

	audio := stdout.Bytes()
	if len(audio) == 0 {
		return Result{}, &WorkerError{Message: "no audio produced", Stderr: tailOf(stderr.String())}
	}

	log.Debug("speech worker finished", "jid", jid, "bytes", len(audio))
	return Result{Audio: audio, Format: FormatWAV}, nil
}

// tailOf keeps the last few lines of worker stderr for error messages.
func tailOf(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
