package symbol

import (
	"fmt"
	"strings"

	"github.com/ianlancetaylor/demangle"
	"github.com/rs/zerolog"

	"github.com/getsentry/simpleperf/internal/errorutil"
	"github.com/getsentry/simpleperf/internal/nodetree"
)

// Parser turns symbol table entries into node models. It is stateless apart
// from the logger anomalies are reported to.
type Parser struct {
	Logger zerolog.Logger
}

func NewParser(logger zerolog.Logger) Parser {
	return Parser{Logger: logger}
}

// Parse is Parser.Parse without a logger.
func Parse(fullName string, isUserWritten bool, fileName string, vaddr int64) (nodetree.Model, error) {
	return Parser{Logger: zerolog.Nop()}.Parse(fullName, isUserWritten, fileName, vaddr)
}

// Parse builds the model for a symbol name.
//
// Names with a parameter list are native functions, dotted names are JVM
// methods and anything else is a bare symbol such as a syscall. fileName is
// the path of the binary the symbol was found in and may be empty. vaddr is
// only recorded on native functions.
func (p Parser) Parse(fullName string, isUserWritten bool, fileName string, vaddr int64) (nodetree.Model, error) {
	if strings.HasPrefix(fullName, "_Z") {
		fullName = demangle.Filter(fullName)
	}
	switch {
	case strings.Contains(fullName, "("):
		return p.parseCpp(fullName, isUserWritten, fileName, vaddr)
	case strings.Contains(fullName, "."):
		return parseJava(fullName), nil
	default:
		return nodetree.SyscallModel{
			Name: fullName,
			Tag:  Tag(fileName),
		}, nil
	}
}

func parseJava(fullName string) nodetree.JavaMethodModel {
	parts := strings.Split(fullName, ".")
	return nodetree.JavaMethodModel{
		MethodName: parts[len(parts)-1],
		ClassName:  strings.Join(parts[:len(parts)-1], "."),
	}
}

func (p Parser) parseCpp(fullName string, isUserWritten bool, fileName string, vaddr int64) (nodetree.Model, error) {
	model := nodetree.CppFunctionModel{
		IsUserCode:     isUserWritten,
		FileName:       fileName,
		Tag:            Tag(fileName),
		VirtualAddress: vaddr,
	}

	open, closing, err := parameterBounds(fullName)
	if err != nil {
		return nil, err
	}
	parameters := fullName[open+1 : closing]

	name, ok := stripReturnType(fullName[:open])
	if !ok {
		return p.unbalanced(model, fullName), nil
	}
	namespace, function, ok := splitNamespace(name)
	if !ok {
		return p.unbalanced(model, fullName), nil
	}
	if !isOperator(function) {
		if function, ok = removeTemplates(function); !ok {
			return p.unbalanced(model, fullName), nil
		}
	}
	if namespace, ok = removeTemplates(namespace); !ok {
		return p.unbalanced(model, fullName), nil
	}
	if parameters, ok = removeTemplates(parameters); !ok {
		return p.unbalanced(model, fullName), nil
	}

	model.Name = function
	model.ClassOrNamespace = namespace
	model.Parameters = parameters
	return model, nil
}

func (p Parser) unbalanced(model nodetree.CppFunctionModel, fullName string) nodetree.CppFunctionModel {
	p.Logger.Warn().Str("symbol", fullName).Msg("unbalanced brackets in native function name")
	model.Name = fullName
	return model
}

// parameterBounds returns the positions of the parentheses enclosing the
// parameter list, which is the one closed by the last ')' of the name.
func parameterBounds(fullName string) (int, int, error) {
	closing := strings.LastIndexByte(fullName, ')')
	if closing < 0 {
		return 0, 0, fmt.Errorf("symbol: %w: unmatched parentheses in %q", errorutil.ErrDataIntegrity, fullName)
	}
	depth := 0
	for i := closing; i >= 0; i-- {
		switch fullName[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i, closing, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("symbol: %w: unmatched parentheses in %q", errorutil.ErrDataIntegrity, fullName)
}

// stripReturnType drops everything up to the first top level space, unless
// the space belongs to a conversion operator such as "operator bool".
func stripReturnType(name string) (string, bool) {
	i, ok := indexTopLevel(name, " ", false)
	if !ok {
		return "", false
	}
	if i < 0 {
		return name, true
	}
	before := name[:i]
	if before == "operator" || strings.HasSuffix(before, "::operator") {
		return name, true
	}
	return name[i+1:], true
}

// splitNamespace splits name at its last top level "::".
func splitNamespace(name string) (string, string, bool) {
	i, ok := indexTopLevel(name, "::", true)
	if !ok {
		return "", "", false
	}
	if i < 0 {
		return "", name, true
	}
	return name[:i], name[i+2:], true
}

// removeTemplates deletes every template argument list from s.
func removeTemplates(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for i := 0; i < len(s); i++ {
		if n := operatorTokenLen(s, i); n > 0 {
			if depth == 0 {
				b.WriteString(s[i : i+n])
			}
			i += n - 1
			continue
		}
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return "", false
			}
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	if depth != 0 {
		return "", false
	}
	return b.String(), true
}

// indexTopLevel returns the index of the first (or last) occurrence of sep
// that is outside of template argument lists and parentheses, or -1. The
// boolean is false when the brackets of s do not balance.
func indexTopLevel(s, sep string, last bool) (int, bool) {
	found := -1
	depth := 0
	for i := 0; i < len(s); i++ {
		if n := operatorTokenLen(s, i); n > 0 {
			i += n - 1
			continue
		}
		switch s[i] {
		case '<', '(':
			depth++
			continue
		case '>', ')':
			depth--
			if depth < 0 {
				return -1, false
			}
			continue
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			if last || found < 0 {
				found = i
			}
			i += len(sep) - 1
		}
	}
	if depth != 0 {
		return -1, false
	}
	return found, true
}

// operatorSymbols is ordered so that longer tokens are matched first.
var operatorSymbols = []string{
	"<<=", ">>=", "->*", "<=>",
	"()", "[]", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "++", "--", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"<", ">", "+", "-", "*", "/", "%", "^", "&", "|", "~", "!", "=", ",",
}

// operatorTokenLen returns the length of the operator name starting at s[i],
// such as "operator<<", or 0 if there is none. Angle brackets and parentheses
// inside it are part of the token.
func operatorTokenLen(s string, i int) int {
	const keyword = "operator"
	if !strings.HasPrefix(s[i:], keyword) || (i > 0 && isIdentifierChar(s[i-1])) {
		return 0
	}
	rest := s[i+len(keyword):]
	if rest != "" && isIdentifierChar(rest[0]) {
		return 0
	}
	for _, sym := range operatorSymbols {
		if strings.HasPrefix(rest, sym) {
			return len(keyword) + len(sym)
		}
	}
	return len(keyword)
}

func isOperator(name string) bool {
	const keyword = "operator"
	return strings.HasPrefix(name, keyword) && len(name) > len(keyword) && !isIdentifierChar(name[len(keyword)])
}

func isIdentifierChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
