package output

import (
	"fmt"
	"io"

	"voice-chat/internal/domain"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Turn prints the two chat slots the same way the page renders them.
func (f *Formatter) Turn(turn *domain.Turn) {
	if turn.Human != "" {
		fmt.Fprintf(f.w, "🧑 human: %s\n", turn.Human)
	}
	if turn.AI != "" {
		fmt.Fprintf(f.w, "🤖 ai: %s\n", turn.AI)
	}
	if turn.Notice != "" {
		fmt.Fprintf(f.w, "%s\n", turn.Notice)
	}
	if turn.AudioPath != "" {
		fmt.Fprintf(f.w, "🔊 Audio saved: %s\n", turn.AudioPath)
	}
}

func (f *Formatter) Listening(addr string) {
	fmt.Fprintf(f.w, "🎙️  Voice chat listening on %s\n", addr)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}
