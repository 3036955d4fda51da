// Package facts loads ground facts from a line-oriented text format into a
// knowledge base.
//
// Format:
//
//	is_a(bert, transformer).
//	weight(bert, 110).
//	score(bert, 0.92)
//	label(bert, 'Large Model')
//	# comments
//	% comments
//
// One fact per line; the trailing full stop is optional. Arguments are atoms,
// integers, decimals or quoted atoms. Variables and rules are not supported.
package facts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

// Load asserts every fact read from r and returns how many were added.
// Repeated lines are asserted once. Facts before a malformed line stay
// asserted.
func Load(k *kb.KnowledgeBase, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	lineNum, added := 0, 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}

		fact, err := parseFact(line)
		if err != nil {
			return added, fmt.Errorf("line %d: %w", lineNum, err)
		}
		key := fact.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if err := k.Assert(fact); err != nil {
			return added, fmt.Errorf("line %d: %w", lineNum, err)
		}
		added++
	}
	return added, scanner.Err()
}

// LoadFile loads the facts in the file at path
func LoadFile(k *kb.KnowledgeBase, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open facts %s: %w", path, err)
	}
	defer f.Close()

	n, err := Load(k, f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// parseFact parses "relation(arg, ...)" or a bare "relation"
func parseFact(line string) (term.Term, error) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "."))

	openParen := strings.Index(line, "(")
	if openParen == -1 {
		if !isName(line) {
			return nil, fmt.Errorf("invalid fact %q: %w", line, internalerr.ErrInvalidInput)
		}
		return term.NewAtom(line), nil
	}
	if !strings.HasSuffix(line, ")") {
		return nil, fmt.Errorf("missing ')': %s: %w", line, internalerr.ErrInvalidInput)
	}

	relation := strings.TrimSpace(line[:openParen])
	if !isName(relation) {
		return nil, fmt.Errorf("invalid relation name %q: %w", relation, internalerr.ErrInvalidInput)
	}

	parts, err := splitArgs(line[openParen+1 : len(line)-1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", line, err)
	}
	args := make([]term.Term, len(parts))
	for i, p := range parts {
		if args[i], err = parseArg(p); err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", line, i+1, err)
		}
	}
	return term.NewStructure(relation, args...), nil
}

// splitArgs splits on commas outside quotes
func splitArgs(s string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	quoted := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			quoted = !quoted
			cur.WriteByte(c)
		case c == ',' && !quoted:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote: %w", internalerr.ErrInvalidInput)
	}
	parts = append(parts, strings.TrimSpace(cur.String()))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty argument: %w", internalerr.ErrInvalidInput)
		}
	}
	return parts, nil
}

func parseArg(s string) (term.Term, error) {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return term.NewAtom(s[1 : len(s)-1]), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return term.NewInteger(n), nil
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return term.NewDecimal(f), nil
		}
	}
	if !isName(s) {
		return nil, fmt.Errorf("invalid atom %q: %w", s, internalerr.ErrInvalidInput)
	}
	return term.NewAtom(s), nil
}

// isName accepts lowercase-led identifiers, allowing hyphens as in
// "neural-network"
func isName(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
