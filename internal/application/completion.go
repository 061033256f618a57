package application

import (
	"context"
	"iter"
	"strings"

	"voice-chat/internal/domain"
)

// Completer sends a prompt to a hosted model. The reply arrives as a lazy,
// finite sequence of text fragments that can be ranged over once.
type Completer interface {
	Complete(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Collect drains fragments in order into one string. The first error ends
// collection; a sequence with no text yields domain.ErrEmptyCompletion.
func Collect(fragments iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for fragment, err := range fragments {
		if err != nil {
			return "", err
		}
		sb.WriteString(fragment)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", domain.ErrEmptyCompletion
	}

	return sb.String(), nil
}

// Fragments returns a sequence over already-received parts.
func Fragments(parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// FailedFragments returns a sequence that yields only err.
func FailedFragments(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
