package review

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

const (
	// FeedbackNoReason is used when a rejection carries no reason.
	FeedbackNoReason = "No reason provided"
	// FeedbackServiceFailure is used when the review service could not be reached.
	FeedbackServiceFailure = "Reviewer could not process request"
	unclearPrefix          = "Unclear reviewer output: "

	categoryDelimiters = "-:–—|"
)

// Parser turns raw reviewer text into a Verdict. The accepted grammar is
//
//	verdict  = "Approved" | "Rejected" [ ":" [ category delim ] reason ]
//	delim    = "-" | ":" | "|"
//
// matched case-insensitively after stripping surrounding quotes and markup.
// Anything else is a rejection; approval needs an unambiguous "Approved".
type Parser struct {
	vocab domain.Vocabulary
}

// NewParser builds a parser that recognizes corrections drawn from vocab.
func NewParser(vocab domain.Vocabulary) *Parser {
	return &Parser{vocab: vocab}
}

// Parse classifies raw reviewer output.
func (p *Parser) Parse(raw string) domain.Verdict {
	text := strings.TrimFunc(raw, isWrapper)
	word, rest := leadingWord(text)

	switch strings.ToLower(word) {
	case "approved":
		lower := strings.ToLower(rest)
		if strings.HasPrefix(strings.TrimSpace(rest), "?") || strings.Contains(lower, "reject") {
			return unclear(raw)
		}
		return domain.Approved()
	case "rejected":
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ":") {
			return domain.Rejected(FeedbackNoReason, nil)
		}
		return p.parseRejection(strings.TrimSpace(rest[1:]))
	default:
		return unclear(raw)
	}
}

func (p *Parser) parseRejection(body string) domain.Verdict {
	if body == "" {
		return domain.Rejected(FeedbackNoReason, nil)
	}

	candidate, labelled := body, false
	if lower := strings.ToLower(candidate); strings.HasPrefix(lower, "category") {
		after := strings.TrimLeft(candidate[len("category"):], " ")
		if strings.HasPrefix(after, ":") || strings.HasPrefix(after, "=") {
			candidate, labelled = strings.TrimSpace(after[1:]), true
		}
	}

	token, reason := splitFirstField(candidate)
	c, ok := p.vocab.Lookup(strings.TrimFunc(token, isTokenPunct))
	if !ok || !(labelled || marksCategory(token, reason)) {
		return domain.Rejected(body, nil)
	}
	reason = strings.TrimLeftFunc(reason, isReasonDelimiter)
	if reason == "" {
		reason = FeedbackNoReason
	}
	return domain.Rejected(reason, &c)
}

// marksCategory reports whether a leading vocabulary word is set apart from
// the reason. A bare word running straight into the sentence is feedback.
func marksCategory(token, reason string) bool {
	if strings.ContainsAny(token[:1], "[(<") {
		return true
	}
	if last, _ := utf8.DecodeLastRuneInString(token); strings.ContainsRune(categoryDelimiters, last) {
		return true
	}
	rest := strings.TrimLeftFunc(reason, unicode.IsSpace)
	if rest == "" {
		return true
	}
	first, _ := utf8.DecodeRuneInString(rest)
	return strings.ContainsRune(categoryDelimiters, first)
}

func unclear(raw string) domain.Verdict {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = "(empty)"
	}
	return domain.Rejected(unclearPrefix+trimmed, nil)
}

// leadingWord splits off the first run of letters.
func leadingWord(s string) (string, string) {
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

func splitFirstField(s string) (string, string) {
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

func isReasonDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(categoryDelimiters+",;", r)
}

func isWrapper(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("\"'`*_", r)
}

func isTokenPunct(r rune) bool {
	return strings.ContainsRune("[](){}<>*\"'`.,:;-", r)
}
