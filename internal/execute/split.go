package execute

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokOther tokenKind = iota
	tokWord
	tokSemicolon
	tokComment
	tokSlash
)

type token struct {
	kind tokenKind
	text string
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '#' || c >= 0x80 || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

// lex cuts script into words, semicolons, comments, lone "/" lines and
// everything else. Quoted text is kept whole.
func lex(script string) []token {
	var tokens []token
	n := len(script)
	lineStart := true

	for i := 0; i < n; {
		c := script[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < n {
				if script[j] == c {
					if j+1 < n && script[j+1] == c {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			tokens = append(tokens, token{tokOther, script[i:j]})
			i = j
			lineStart = false

		case c == '-' && i+1 < n && script[i+1] == '-':
			j := strings.IndexByte(script[i:], '\n')
			if j < 0 {
				j = n - i
			}
			tokens = append(tokens, token{tokComment, script[i : i+j]})
			i += j

		case c == '/' && i+1 < n && script[i+1] == '*':
			j := strings.Index(script[i+2:], "*/")
			end := n
			if j >= 0 {
				end = i + 2 + j + 2
			}
			tokens = append(tokens, token{tokComment, script[i:end]})
			i = end

		case c == '/' && lineStart && restOfLineBlank(script[i+1:]):
			tokens = append(tokens, token{tokSlash, "/"})
			i++

		case c == ';':
			tokens = append(tokens, token{tokSemicolon, ";"})
			i++
			lineStart = false

		case isWordByte(c):
			j := i + 1
			for j < n && isWordByte(script[j]) {
				j++
			}
			tokens = append(tokens, token{tokWord, script[i:j]})
			i = j
			lineStart = false

		default:
			tokens = append(tokens, token{tokOther, string(c)})
			i++
			if c == '\n' {
				lineStart = true
			} else if c != ' ' && c != '\t' && c != '\r' {
				lineStart = false
			}
		}
	}
	return tokens
}

func restOfLineBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}

var blockObjects = map[string]bool{"procedure": true, "function": true, "trigger": true, "package": true, "type": true}

// SplitScript splits SQL text into single commands. Plain commands lose their
// terminating semicolon; PL/SQL blocks keep their final "end;". Comments are
// dropped and a line holding only "/" ends the current command.
func SplitScript(script string) []string {
	var (
		cmds       []string
		cur        strings.Builder
		words      int
		first      string
		second     string
		block      bool
		sawBegin   bool
		depth      int
		endPending bool
	)

	reset := func() {
		cur.Reset()
		words, first, second = 0, "", ""
		block, sawBegin, endPending = false, false, false
		depth = 0
	}
	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			cmds = append(cmds, text)
		}
		reset()
	}

	for _, tok := range lex(script) {
		switch tok.kind {
		case tokComment:
			cur.WriteByte(' ')

		case tokSlash:
			flush()

		case tokSemicolon:
			if endPending {
				depth--
				endPending = false
			}
			if !block || (sawBegin && depth <= 0) {
				if block {
					cur.WriteString(";")
				}
				flush()
				continue
			}
			cur.WriteString(";")

		case tokWord:
			lw := strings.ToLower(tok.text)
			words++
			switch {
			case words == 1:
				first = lw
				block = lw == "begin" || lw == "declare"
			case words == 2:
				second = lw
				block = block || (first == "create" && blockObjects[lw])
			case words == 4 && first == "create" && second == "or":
				block = blockObjects[lw]
			}

			if block {
				consumed := false
				if endPending {
					endPending = false
					switch lw {
					case "if", "loop":
						consumed = true
					case "case":
						depth--
						consumed = true
					default:
						depth--
					}
				}
				if !consumed {
					switch lw {
					case "begin":
						depth++
						sawBegin = true
					case "case":
						depth++
					case "end":
						endPending = true
					}
				}
			}
			cur.WriteString(tok.text)

		default:
			cur.WriteString(tok.text)
		}
	}
	flush()

	return cmds
}

// firstWord returns the lowercased leading keyword of a command.
func firstWord(cmd string) string {
	for _, tok := range lex(cmd) {
		if tok.kind == tokWord {
			return strings.ToLower(tok.text)
		}
		if tok.kind != tokComment && strings.TrimSpace(tok.text) != "" && tok.text != "(" {
			return ""
		}
	}
	return ""
}

// keywords returns the first n lowercased words of a command.
func keywords(cmd string, n int) []string {
	var out []string
	for _, tok := range lex(cmd) {
		if tok.kind == tokWord {
			out = append(out, strings.ToLower(tok.text))
			if len(out) == n {
				break
			}
		}
	}
	return out
}

// unwrapBlock turns "begin a; b; commit; end;" into its inner commands, for
// engines without anonymous blocks. Transaction control is dropped since
// those engines run in autocommit mode. ok is false for anything that is not
// a plain begin block.
func unwrapBlock(cmd string) (inner []string, ok bool) {
	tokens := lex(cmd)

	firstIdx, lastIdx := -1, -1
	for i, tok := range tokens {
		if tok.kind == tokWord {
			if firstIdx < 0 {
				firstIdx = i
			}
			lastIdx = i
		}
	}
	if firstIdx < 0 || firstIdx == lastIdx ||
		!strings.EqualFold(tokens[firstIdx].text, "begin") ||
		!strings.EqualFold(tokens[lastIdx].text, "end") {
		return nil, false
	}

	var body strings.Builder
	for _, tok := range tokens[firstIdx+1 : lastIdx] {
		body.WriteString(tok.text)
	}

	for _, c := range SplitScript(body.String()) {
		switch firstWord(c) {
		case "commit", "rollback":
			continue
		case "begin", "declare":
			return nil, false
		}
		inner = append(inner, c)
	}
	return inner, true
}
