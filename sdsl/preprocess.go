package sdsl

import (
	"fmt"
	"strings"
)

// condFrame tracks one #if/#ifdef nesting level.
type condFrame struct {
	parentActive bool
	active       bool
	taken        bool
	line         int
}

// Preprocess evaluates conditional directives against defines and strips
// directive lines. Directive and skipped lines are replaced by empty lines
// so token positions keep their original line numbers. It returns the
// processed text and the defines in effect at the end of the file.
func Preprocess(text string, defines map[string]string) (string, map[string]string, error) {
	env := make(map[string]string, len(defines))
	for k, v := range defines {
		env[k] = v
	}

	lines := strings.Split(text, "\n")
	var out strings.Builder
	var stack []condFrame
	active := true

	for i, line := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if active {
				out.WriteString(line)
			}
			continue
		}

		directive, rest := splitDirective(trimmed[1:])
		switch directive {
		case "define":
			if active {
				name, value := splitDirective(rest)
				if name == "" {
					return "", nil, fmt.Errorf("line %d: #define without a name", i+1)
				}
				env[name] = value
			}
		case "undef":
			if active {
				delete(env, strings.TrimSpace(rest))
			}
		case "ifdef", "ifndef", "if":
			var cond bool
			switch directive {
			case "ifdef":
				_, cond = env[strings.TrimSpace(rest)]
			case "ifndef":
				_, defined := env[strings.TrimSpace(rest)]
				cond = !defined
			default:
				cond = evalCondition(rest, env)
			}
			stack = append(stack, condFrame{parentActive: active, active: active && cond, taken: cond, line: i + 1})
			active = active && cond
		case "elif":
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("line %d: #elif without #if", i+1)
			}
			top := &stack[len(stack)-1]
			cond := !top.taken && evalCondition(rest, env)
			top.taken = top.taken || cond
			top.active = top.parentActive && cond
			active = top.active
		case "else":
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("line %d: #else without #if", i+1)
			}
			top := &stack[len(stack)-1]
			top.active = top.parentActive && !top.taken
			top.taken = true
			active = top.active
		case "endif":
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("line %d: #endif without #if", i+1)
			}
			active = stack[len(stack)-1].parentActive
			stack = stack[:len(stack)-1]
		default:
			// #line, #pragma and similar pass through as blank lines.
		}
	}
	if len(stack) > 0 {
		return "", nil, fmt.Errorf("line %d: unterminated conditional directive", stack[len(stack)-1].line)
	}
	return out.String(), env, nil
}

func splitDirective(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t(")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// evalCondition evaluates a #if expression made of ||, && and terms of
// the form defined(X), !defined(X), X, !X or an integer.
func evalCondition(expr string, env map[string]string) bool {
	for _, or := range strings.Split(expr, "||") {
		all := true
		for _, and := range strings.Split(or, "&&") {
			if !evalTerm(strings.TrimSpace(and), env) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func evalTerm(term string, env map[string]string) bool {
	term = strings.TrimSpace(term)
	if strings.HasPrefix(term, "!") {
		return !evalTerm(term[1:], env)
	}
	term = strings.TrimSuffix(strings.TrimPrefix(term, "("), ")")
	if strings.HasPrefix(term, "defined") {
		name := strings.TrimSpace(strings.Trim(strings.TrimPrefix(term, "defined"), "() \t"))
		_, ok := env[name]
		return ok
	}
	if term == "" {
		return false
	}
	if isDigit(rune(term[0])) {
		return strings.Trim(term, "0") != ""
	}
	v, ok := env[term]
	if !ok {
		return false
	}
	v = strings.TrimSpace(v)
	return v != "0" && v != "false"
}

// expandMacros substitutes identifier tokens naming object-like macros with
// the tokens of their definition. Expansion repeats for nested macros, and
// a macro is never expanded inside its own expansion.
func expandMacros(tokens []Token, env map[string]string) []Token {
	if len(env) == 0 {
		return tokens
	}
	return expandWith(tokens, env, map[string]bool{})
}

func expandWith(tokens []Token, env map[string]string, active map[string]bool) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		def, ok := env[tok.Lexeme]
		if tok.Kind != TokenIdent || !ok || active[tok.Lexeme] {
			out = append(out, tok)
			continue
		}
		repl := NewLexer(def).Tokenize()
		repl = repl[:len(repl)-1]
		for i := range repl {
			repl[i].Line = tok.Line
			repl[i].Column = tok.Column
		}
		active[tok.Lexeme] = true
		out = append(out, expandWith(repl, env, active)...)
		delete(active, tok.Lexeme)
	}
	return out
}
