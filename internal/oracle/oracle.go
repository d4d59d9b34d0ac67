package oracle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Canonical answers the model may give to a valid question.
const (
	AnswerYes       = "Yes"
	AnswerNo        = "No"
	AnswerSometimes = "Sometimes"
	AnswerDontKnow  = "I don't know"
)

// canonicalAnswers in prefix-match priority order.
var canonicalAnswers = []string{AnswerYes, AnswerNo, AnswerSometimes, AnswerDontKnow}

// ErrAnswerParse signals that the model's reply to a valid question could not
// be mapped to an answer at all. Fatal for the turn, distinct from an invalid
// question: the question was fine, the model failed to answer it usably.
var ErrAnswerParse = errors.New("could not parse an answer from the model reply")

var (
	// [ \t] rather than \s: in multiline mode \s crosses the newline, which
	// would make an empty item swallow the next line as its text.
	numberedItemRe = regexp.MustCompile(`(?m)^\d+\.[ \t]*(.+)$`)
	replyLineRe    = regexp.MustCompile(`^Reply:\s*(.*)$`)
	reasonLineRe   = regexp.MustCompile(`^Reason:\s*(.*)$`)
	thoughtLineRe  = regexp.MustCompile(`^Thought:\s*(.*)$`)
	answerLineRe   = regexp.MustCompile(`^Answer:\s*(.*)$`)
)

// Oracle exposes the four language-model capabilities the game engine needs.
// Stateless per call; the caller supplies all context.
type Oracle struct {
	llm Completer
	rec *UsageRecorder
	log zerolog.Logger
}

// New creates an Oracle over the given completion capability.
func New(llm Completer, log zerolog.Logger) *Oracle {
	return &Oracle{llm: llm, log: log}
}

// WithRecorder returns a copy of the oracle whose calls feed the given usage
// recorder. Used to scope token accounting to one game.
func (o *Oracle) WithRecorder(rec *UsageRecorder) *Oracle {
	clone := *o
	clone.rec = rec
	return &clone
}

func (o *Oracle) complete(ctx context.Context, prompt string) (string, error) {
	c, err := o.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if o.rec != nil {
		o.rec.Record(c.Usage)
	}
	return c.Text, nil
}

// PickSubjectCandidates asks for n candidate subjects in the given category,
// excluding everything in excluded. Lines not matching the "N. text" pattern
// are silently dropped; the caller must treat an empty result as a failure.
func (o *Oracle) PickSubjectCandidates(ctx context.Context, n int, category string, excluded []string) ([]string, error) {
	seen := strings.Join(excluded, "\n")
	text, err := o.complete(ctx, fmt.Sprintf(pickSubjectTemplate, seen, n, category))
	if err != nil {
		return nil, fmt.Errorf("pick subject candidates: %w", err)
	}

	var items []string
	for _, m := range numberedItemRe.FindAllStringSubmatch(text, -1) {
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
	}
	o.log.Debug().Str("category", category).Int("candidates", len(items)).Msg("subject candidates parsed")
	return items, nil
}

// IsYesNoQuestion reports whether the question is answerable with a
// yes/no/sometimes/don't-know response for the subject. The reason is
// advisory text for the player, populated only when the question is invalid.
func (o *Oracle) IsYesNoQuestion(ctx context.Context, subject, question string) (bool, string, error) {
	text, err := o.complete(ctx, fmt.Sprintf(isYesNoTemplate, subject, question))
	if err != nil {
		return false, "", fmt.Errorf("validate question: %w", err)
	}

	reply := lastMatch(text, replyLineRe)
	reason := lastMatch(text, reasonLineRe)
	isYesNo := strings.EqualFold(strings.TrimSpace(reply), "yes")
	if isYesNo {
		reason = ""
	}
	return isYesNo, reason, nil
}

// AnswerQuestion produces one of the four canonical answers for the question,
// plus the model's justification. A parseable but non-canonical answer is
// passed through degraded (logged as a warning). A missing answer line is
// ErrAnswerParse.
func (o *Oracle) AnswerQuestion(ctx context.Context, subject, question, today string) (string, string, error) {
	text, err := o.complete(ctx, fmt.Sprintf(answerQuestionTemplate, today, subject, question))
	if err != nil {
		return "", "", fmt.Errorf("answer question: %w", err)
	}

	answer := lastMatch(text, answerLineRe)
	justification := lastMatch(text, thoughtLineRe)
	if strings.TrimSpace(answer) == "" {
		return "", "", fmt.Errorf("%w: %q", ErrAnswerParse, text)
	}

	answer = strings.TrimSpace(answer)
	for _, canonical := range canonicalAnswers {
		if strings.HasPrefix(answer, canonical) {
			return canonical, justification, nil
		}
	}

	o.log.Warn().Str("answer", answer).Msg("unexpected non-canonical answer, passing through")
	return answer, justification, nil
}

// IsDecidingQuestion reports whether answering "Yes" to this question is
// sufficient for the player to have identified the subject. Only ever called
// when the prior answer was exactly "Yes".
func (o *Oracle) IsDecidingQuestion(ctx context.Context, subject, question string) (bool, error) {
	text, err := o.complete(ctx, fmt.Sprintf(decidingQuestionTemplate, subject, question))
	if err != nil {
		return false, fmt.Errorf("deciding question check: %w", err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "yes"), nil
}

// lastMatch scans the reply bottom-up for the last line matching re and
// returns its captured value. Models occasionally echo the few-shot examples;
// the final occurrence is the one that answers the actual prompt.
func lastMatch(text string, re *regexp.Regexp) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if m := re.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
