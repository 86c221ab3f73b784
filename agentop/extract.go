package agentop

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m4xw311/askai/tools"
)

// legacyFilesystemPrefixes mark an "(Executed: ...)" payload as a
// filesystem operation.
var legacyFilesystemPrefixes = []string{"mkdir", "rm ", "cp ", "mv "}

// Extractor finds operation tokens in model output.
type Extractor struct {
	// DocumentRoot confines filesystem paths. Paths outside it are rebased
	// under it rather than rejected.
	DocumentRoot string
}

// Extract returns every operation in text, left to right. Malformed tokens
// are skipped. Extract does not modify text, so calling it twice on the same
// input yields the same requests.
func (x Extractor) Extract(text string) []Request {
	var reqs []Request
	pos := 0
	for pos < len(text) {
		start, legacy := nextCandidate(text, pos)
		if start < 0 {
			break
		}
		var (
			req Request
			ok  bool
		)
		if legacy {
			req, ok = x.scanLegacy(text, start)
		} else {
			req, ok = x.scanToken(text, start)
		}
		if !ok {
			pos = start + 1
			continue
		}
		reqs = append(reqs, req)
		pos = req.End
	}
	return reqs
}

// FirstPending returns the first {{agent:...}} token in text, ignoring
// annotations.
func (x Extractor) FirstPending(text string) (Request, bool) {
	for _, r := range x.Extract(text) {
		if !r.Legacy {
			return r, true
		}
	}
	return Request{}, false
}

// HasPending reports whether text still contains an unresolved token.
func (x Extractor) HasPending(text string) bool {
	_, ok := x.FirstPending(text)
	return ok
}

// ParseFilePayload splits "ACTION:PATH[:CONTENT]". Everything after the
// second separator is content, so content may itself contain colons.
func (x Extractor) ParseFilePayload(payload string) FileOperation {
	parts := strings.Split(payload, payloadSeparator)
	op := FileOperation{Action: tools.FileAction(strings.ToLower(strings.TrimSpace(parts[0])))}
	var path string
	if len(parts) > 1 {
		path = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		op.Content = strings.Join(parts[2:], payloadSeparator)
		op.HasContent = true
	}
	op.Path = Rebase(path, x.DocumentRoot)
	return op
}

// Rebase confines path to root. A path already under root is returned
// cleaned; anything else, absolute or relative, is re-rooted under root with
// leading ".." segments dropped. An empty root disables rebasing.
func Rebase(path, root string) string {
	if root == "" {
		return path
	}
	root = filepath.Clean(root)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if filepath.IsAbs(path) {
		clean := filepath.Clean(path)
		if under(root, clean) {
			return clean
		}
	}
	// Joining onto the separator first strips any ".." that would climb out.
	return filepath.Join(root, filepath.Join(string(filepath.Separator), path))
}

func under(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// nextCandidate finds the next token or annotation opening at or after pos.
func nextCandidate(text string, pos int) (int, bool) {
	tok := strings.Index(text[pos:], tokenOpen)
	leg := strings.Index(text[pos:], executedOpen)
	switch {
	case tok < 0 && leg < 0:
		return -1, false
	case tok < 0:
		return pos + leg, true
	case leg < 0 || tok < leg:
		return pos + tok, false
	default:
		return pos + leg, true
	}
}

// scanToken parses "{{agent:TYPE:PAYLOAD}}" starting at start. The payload
// ends at the first "}}".
func (x Extractor) scanToken(text string, start int) (Request, bool) {
	body := start + len(tokenOpen)
	sep := strings.Index(text[body:], payloadSeparator)
	if sep < 0 {
		return Request{}, false
	}
	typ := text[body : body+sep]
	if typ != typeFilesystem && typ != typeShell {
		return Request{}, false
	}
	payloadStart := body + sep + 1
	closing := strings.Index(text[payloadStart:], tokenClose)
	if closing <= 0 {
		return Request{}, false
	}
	payload := text[payloadStart : payloadStart+closing]
	end := payloadStart + closing + len(tokenClose)

	req := Request{
		Payload: payload,
		Span:    text[start:end],
		Start:   start,
		End:     end,
	}
	if typ == typeFilesystem {
		req.Op = x.ParseFilePayload(payload)
	} else {
		req.Op = ShellOperation{CommandLine: strings.TrimSpace(payload)}
	}
	return req, true
}

// scanLegacy parses "(Executed: PAYLOAD)" starting at start. The payload
// ends at the first ")" that is not closing a "(" inside it, so
// "(Executed: echo $(pwd))" yields "echo $(pwd)".
func (x Extractor) scanLegacy(text string, start int) (Request, bool) {
	payloadStart := start + len(executedOpen)
	closing := matchingClose(text[payloadStart:])
	if closing <= 0 {
		return Request{}, false
	}
	payload := text[payloadStart : payloadStart+closing]
	end := payloadStart + closing + len(annotationClose)

	req := Request{
		Payload: payload,
		Span:    text[start:end],
		Start:   start,
		End:     end,
		Legacy:  true,
	}
	if isLegacyFilesystem(payload) {
		req.Op = x.ParseFilePayload(payload)
	} else {
		req.Op = ShellOperation{CommandLine: strings.TrimSpace(payload)}
	}
	return req, true
}

// matchingClose returns the index of the ")" ending an annotation whose
// payload starts s. Without a balanced match it falls back to the first ")".
func matchingClose(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return strings.Index(s, annotationClose)
}

func isLegacyFilesystem(payload string) bool {
	for _, p := range legacyFilesystemPrefixes {
		if strings.HasPrefix(payload, p) {
			return true
		}
	}
	return strings.Contains(payload, payloadSeparator)
}
