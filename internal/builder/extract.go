package builder

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"regexp"
	"sort"
	"strings"
)

// ErrUnsupported is returned by an Extractor asked to handle a language it
// does not know.
var ErrUnsupported = errors.New("language not supported by extractor")

// Extractor pulls exported signatures out of one source file.
type Extractor interface {
	// Name identifies the extractor and its version in cache keys.
	Name() string
	Supports(language string) bool
	Extract(filename string, src []byte) ([]string, error)
}

// GoExtractor parses Go files with go/parser and reports exported
// functions, methods and types.
type GoExtractor struct{}

func (GoExtractor) Name() string { return "go-ast/1" }

func (GoExtractor) Supports(language string) bool { return language == "go" }

func (GoExtractor) Extract(filename string, src []byte) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	var sigs []string
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !d.Name.IsExported() {
				continue
			}
			if d.Recv != nil && len(d.Recv.List) > 0 && !ast.IsExported(recvName(d.Recv.List[0].Type)) {
				continue
			}
			sigs = append(sigs, funcSignature(d))
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || !ts.Name.IsExported() {
					continue
				}
				sigs = append(sigs, typeSignature(ts))
			}
		}
	}
	return sigs, nil
}

func funcSignature(d *ast.FuncDecl) string {
	var b strings.Builder
	b.WriteString("func ")
	if d.Recv != nil && len(d.Recv.List) > 0 {
		b.WriteString("(")
		b.WriteString(types.ExprString(d.Recv.List[0].Type))
		b.WriteString(") ")
	}
	b.WriteString(d.Name.Name)
	b.WriteString("(")
	b.WriteString(fieldList(d.Type.Params))
	b.WriteString(")")
	if res := d.Type.Results; res != nil && len(res.List) > 0 {
		if len(res.List) == 1 && len(res.List[0].Names) == 0 {
			b.WriteString(" " + fieldList(res))
		} else {
			b.WriteString(" (" + fieldList(res) + ")")
		}
	}
	return b.String()
}

func fieldList(fl *ast.FieldList) string {
	if fl == nil {
		return ""
	}
	var parts []string
	for _, field := range fl.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		for _, name := range field.Names {
			parts = append(parts, name.Name+" "+typ)
		}
	}
	return strings.Join(parts, ", ")
}

func typeSignature(ts *ast.TypeSpec) string {
	switch t := ts.Type.(type) {
	case *ast.StructType:
		return "type " + ts.Name.Name + " struct"
	case *ast.InterfaceType:
		return "type " + ts.Name.Name + " interface"
	default:
		return "type " + ts.Name.Name + " " + types.ExprString(t)
	}
}

func recvName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return recvName(t.X)
	case *ast.IndexListExpr:
		return recvName(t.X)
	default:
		return ""
	}
}

// PatternExtractor matches declaration lines with per-language regular
// expressions. It never fails on malformed input.
type PatternExtractor struct{}

var patterns = map[string][]*regexp.Regexp{
	"go": {
		regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?[A-Z]\w*\s*\([^{\n]*`),
		regexp.MustCompile(`(?m)^type\s+[A-Z]\w*\s+\w+`),
	},
	"typescript": {
		regexp.MustCompile(`(?m)^export\s+(?:default\s+)?(?:async\s+)?function\s*\*?\s*\w*\s*(?:<[^>]*>)?\([^{\n]*`),
		regexp.MustCompile(`(?m)^export\s+(?:default\s+)?(?:abstract\s+)?(?:class|interface|type|enum)\s+\w+`),
		regexp.MustCompile(`(?m)^export\s+(?:const|let|var)\s+\w+`),
	},
	"javascript": {
		regexp.MustCompile(`(?m)^export\s+(?:default\s+)?(?:async\s+)?function\s*\*?\s*\w*\s*\([^{\n]*`),
		regexp.MustCompile(`(?m)^export\s+(?:default\s+)?class\s+\w+`),
		regexp.MustCompile(`(?m)^export\s+(?:const|let|var)\s+\w+`),
		regexp.MustCompile(`(?m)^module\.exports\.\w+`),
	},
	"python": {
		regexp.MustCompile(`(?m)^(?:async\s+)?def\s+[A-Za-z]\w*\s*\([^\n]*?\)(?:\s*->\s*[^:\n]+)?`),
		regexp.MustCompile(`(?m)^class\s+[A-Za-z]\w*(?:\([^)\n]*\))?`),
	},
	"rust": {
		regexp.MustCompile(`(?m)^\s*pub\s+(?:async\s+)?(?:unsafe\s+)?fn\s+\w+[^{;\n]*`),
		regexp.MustCompile(`(?m)^\s*pub\s+(?:struct|enum|trait|type)\s+\w+`),
	},
	"java": {
		regexp.MustCompile(`(?m)^\s*public\s+(?:abstract\s+|final\s+)?(?:class|interface|enum|record)\s+\w+`),
		regexp.MustCompile(`(?m)^\s*public\s+(?:static\s+)?(?:final\s+)?[\w<>\[\],\s]+\s+\w+\s*\([^{;\n]*\)`),
	},
	"kotlin": {
		regexp.MustCompile(`(?m)^\s*(?:data\s+|sealed\s+|open\s+)?(?:class|interface|object)\s+\w+`),
		regexp.MustCompile(`(?m)^\s*fun\s+(?:<[^>]*>\s*)?[\w.]+\s*\([^{=\n]*`),
	},
	"ruby": {
		regexp.MustCompile(`(?m)^\s*(?:class|module)\s+[A-Z][\w:]*`),
		regexp.MustCompile(`(?m)^\s*def\s+(?:self\.)?\w+[?!]?(?:\([^)\n]*\))?`),
	},
	"csharp": {
		regexp.MustCompile(`(?m)^\s*public\s+(?:static\s+|sealed\s+|abstract\s+|partial\s+)*(?:class|interface|struct|record|enum)\s+\w+`),
	},
	"swift": {
		regexp.MustCompile(`(?m)^\s*(?:public\s+|open\s+)(?:final\s+)?(?:class|struct|protocol|enum|func)\s+\w+[^{\n]*`),
	},
	"php": {
		regexp.MustCompile(`(?m)^\s*(?:final\s+|abstract\s+)?(?:class|interface|trait)\s+\w+`),
		regexp.MustCompile(`(?m)^\s*public\s+(?:static\s+)?function\s+\w+\s*\([^{\n]*`),
	},
	"c": {
		regexp.MustCompile(`(?m)^[A-Za-z_][\w \t\*]*[ \t]\**[A-Za-z_]\w*[ \t]*\([^;{\n]*\)[ \t]*;`),
	},
	"protobuf": {
		regexp.MustCompile(`(?m)^\s*(?:message|service|enum)\s+\w+`),
		regexp.MustCompile(`(?m)^\s*rpc\s+\w+\s*\([^)]*\)\s*returns\s*\([^)]*\)`),
	},
	"shell": {
		regexp.MustCompile(`(?m)^(?:function\s+)?[A-Za-z_][\w-]*\s*\(\)`),
	},
}

func (PatternExtractor) Name() string { return "pattern/1" }

func (PatternExtractor) Supports(language string) bool {
	_, ok := patterns[language]
	return ok
}

func (PatternExtractor) Extract(filename string, src []byte) ([]string, error) {
	res, ok := patterns[Language(filename)]
	if !ok {
		return nil, ErrUnsupported
	}

	type match struct {
		pos int
		sig string
	}
	var found []match
	seen := make(map[string]bool)
	for _, re := range res {
		for _, loc := range re.FindAllIndex(src, -1) {
			sig := normalize(string(src[loc[0]:loc[1]]))
			if sig == "" || seen[sig] {
				continue
			}
			seen[sig] = true
			found = append(found, match{pos: loc[0], sig: sig})
		}
	}

	// Report in source order.
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	sigs := make([]string, len(found))
	for i, m := range found {
		sigs[i] = m.sig
	}
	return sigs, nil
}

// normalize collapses whitespace and drops trailing openers.
func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, " {:=;")
	return s
}
