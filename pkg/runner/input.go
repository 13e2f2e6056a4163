package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Controller is the part of the engine driven by consumer input.
type Controller interface {
	Answer(ctx context.Context, index int) (bool, error)
	Reveal(ctx context.Context) error
	Explode(ctx context.Context) error
}

// CommandKind identifies what a line of input asks for.
type CommandKind int

const (
	CmdAnswer CommandKind = iota
	CmdReveal
	CmdExplode
	CmdQuit
)

// Command is one parsed line of input.
type Command struct {
	Kind  CommandKind
	Index int // zero-based, CmdAnswer only
}

var (
	ErrEmptyInput     = errors.New("empty input")
	ErrUnknownCommand = errors.New("unknown command")
)

// Parser turns a sanitized line into a Command.
type Parser func(line string) (Command, error)

// ParseText reads the interactive syntax: a 1-based answer number or letter,
// "r" to reveal, "x" to explode and "q" to quit.
func ParseText(line string) (Command, error) {
	s := strings.ToLower(strings.TrimSpace(line))
	switch s {
	case "":
		return Command{}, ErrEmptyInput
	case "r", "reveal", "skip":
		return Command{Kind: CmdReveal}, nil
	case "x", "explode":
		return Command{Kind: CmdExplode}, nil
	case "q", "quit", "exit":
		return Command{Kind: CmdQuit}, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 {
		return Command{Kind: CmdAnswer, Index: n - 1}, nil
	}
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'f' {
		return Command{Kind: CmdAnswer, Index: int(s[0] - 'a')}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

type jsonCommand struct {
	Command string `json:"command"`
	Index   *int   `json:"index"`
}

// ParseJSON reads one JSON value per line: an object such as
// {"command":"answer","index":0}, a bare zero-based index, or a quoted
// string in the interactive syntax.
func ParseJSON(line string) (Command, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return Command{}, ErrEmptyInput
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return Command{Kind: CmdAnswer, Index: n}, nil
	}
	var text string
	if err := json.Unmarshal([]byte(s), &text); err == nil {
		return ParseText(text)
	}
	var c jsonCommand
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrUnknownCommand, err)
	}
	switch c.Command {
	case "answer":
		if c.Index == nil || *c.Index < 0 {
			return Command{}, fmt.Errorf("%w: answer needs a non-negative index", ErrUnknownCommand)
		}
		return Command{Kind: CmdAnswer, Index: *c.Index}, nil
	case "reveal":
		return Command{Kind: CmdReveal}, nil
	case "explode":
		return Command{Kind: CmdExplode}, nil
	case "quit":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Command)
}

// Line is one read from the input stream.
type Line struct {
	Text string
	Err  error
}

// Pump reads lines from r on its own goroutine. The channel is closed at EOF.
// The goroutine stays blocked in Read until r delivers data or fails.
func Pump(r io.Reader) <-chan Line {
	out := make(chan Line)
	go func() {
		defer close(out)
		reader := bufio.NewReader(r)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				out <- Line{Text: text}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					out <- Line{Err: err}
				}
				return
			}
		}
	}()
	return out
}

// Input dispatches parsed lines to a Controller.
type Input struct {
	Controller Controller
	Parse      Parser
	MaxSize    int
	Logger     *slog.Logger

	// Feedback receives lines that were rejected or commands the engine refused.
	Feedback func(error)
}

// NewInput creates an Input with a discard logger and no feedback.
func NewInput(c Controller, parse Parser) *Input {
	return &Input{
		Controller: c,
		Parse:      parse,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run consumes lines until a quit command, the end of input or ctx is done.
// It returns ctx.Err() on cancellation and nil otherwise.
func (in *Input) Run(ctx context.Context, lines <-chan Line) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				in.Logger.Debug("Input closed")
				return nil
			}
			if l.Err != nil {
				in.Logger.Warn("Input read failed", "err", l.Err)
				return l.Err
			}
			quit, err := in.handle(ctx, l.Text)
			if err != nil {
				if errors.Is(err, ErrEmptyInput) {
					continue
				}
				in.Logger.Debug("Input rejected", "err", err)
				if in.Feedback != nil {
					in.Feedback(err)
				}
			}
			if quit {
				return nil
			}
		}
	}
}

func (in *Input) handle(ctx context.Context, raw string) (quit bool, err error) {
	line, err := SanitizeInput(raw, in.MaxSize)
	if err != nil {
		return false, err
	}
	cmd, err := in.Parse(line)
	if err != nil {
		return false, err
	}
	switch cmd.Kind {
	case CmdAnswer:
		_, err = in.Controller.Answer(ctx, cmd.Index)
	case CmdReveal:
		err = in.Controller.Reveal(ctx)
	case CmdExplode:
		err = in.Controller.Explode(ctx)
	case CmdQuit:
		return true, nil
	}
	return false, err
}
