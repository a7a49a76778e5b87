package hosted

import (
	"bufio"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/acpica-host/errors"
)

// Print writes native output and mirrors it to the logger.
func (h *Host) Print(_ context.Context, s string) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	if _, err := io.WriteString(h.out, s); err != nil {
		Logger().Warn("output write failed", zap.Error(err))
	}
	Logger().Debug("native output", zap.String("text", s))
}

// RedirectOutput records the requested destination. Output keeps going to
// the configured writer.
func (h *Host) RedirectOutput(_ context.Context, dest uint32) {
	h.outMu.Lock()
	h.redir = dest
	h.outMu.Unlock()
	Logger().Debug("output redirected", zap.Uint32("dest", dest))
}

// GetLine reads one line of input. On a terminal the line is edited in raw
// mode.
func (h *Host) GetLine(context.Context) (string, error) {
	in := h.cfg.input()
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return h.readTerminal(fd, in)
	}

	h.outMu.Lock()
	if h.reader == nil {
		h.reader = bufio.NewReader(in)
	}
	r := h.reader
	h.outMu.Unlock()

	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "read line")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (h *Host) readTerminal(fd int, in io.Reader) (string, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindUnsupported, err, "raw terminal")
	}
	defer term.Restore(fd, state)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, h.out}, "- ")
	line, err := t.ReadLine()
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "read line")
	}
	return line, nil
}
