// Package builder is the default build action. It describes a directory by
// the exported declarations of its files and the summaries of its
// subdirectories, without any language model.
package builder

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/cache"
	"github.com/bianoble/dirctx/internal/engine"
)

const (
	// DefaultMaxFileBytes bounds the files handed to extractors.
	DefaultMaxFileBytes = 512 << 10
	// maxSummaryNames caps the export names quoted in a summary.
	maxSummaryNames = 6
	// missingChild is the summary recorded for a child without an artifact.
	missingChild = "missing"
)

// DefaultExtractors returns the structured Go extractor followed by the
// pattern extractor. Earlier extractors win; a failure falls through.
func DefaultExtractors() []Extractor {
	return []Extractor{GoExtractor{}, PatternExtractor{}}
}

// Builder implements engine.BuildAction. A Builder is safe for concurrent
// use by the engine's workers.
type Builder struct {
	// CacheDir holds extraction results across runs. Empty disables caching.
	CacheDir     string
	MaxFileBytes int64
	Extractors   []Extractor
	Log          logrus.FieldLogger

	cacheOnce sync.Once
	cache     *cache.Cache
}

// New returns a Builder with default extractors caching under cacheDir.
func New(cacheDir string) *Builder {
	return &Builder{CacheDir: cacheDir}
}

var _ engine.BuildAction = (*Builder)(nil)

func (b *Builder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

// extractionCache opens the cache on first use. An unusable cache directory
// disables caching for this Builder rather than failing builds.
func (b *Builder) extractionCache() *cache.Cache {
	b.cacheOnce.Do(func() {
		if b.CacheDir == "" {
			return
		}
		c, err := cache.New(b.CacheDir)
		if err != nil {
			b.log().WithError(err).Warn("extraction cache disabled")
			return
		}
		b.cache = c
	})
	return b.cache
}

// Build implements engine.BuildAction.
func (b *Builder) Build(ctx context.Context, in engine.BuildInput) (*artifact.Content, error) {
	limit := b.MaxFileBytes
	if limit <= 0 {
		limit = DefaultMaxFileBytes
	}
	log := b.log().WithField("target", in.Target.ID)

	content := &artifact.Content{}
	for _, name := range in.Target.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := artifact.FileEntry{Name: name, Language: Language(name)}
		data, err := in.ReadFile(name)
		switch {
		case err != nil:
			log.WithError(err).WithField("file", name).Debug("skipping unreadable file")
		case int64(len(data)) > limit:
			log.WithField("file", name).Debug("skipping oversized file")
		default:
			entry.Signatures = b.extract(name, entry.Language, data, log)
		}
		content.Files = append(content.Files, entry)
	}

	for _, child := range in.Target.Children {
		ref := artifact.ChildRef{ID: child.ID, Summary: missingChild}
		if a := in.Children[child.ID]; a != nil && a.Summary != "" {
			ref.Summary = a.Summary
		}
		content.Children = append(content.Children, ref)
	}

	content.Summary = summarize(in.Target.ID, content)
	return content, nil
}

func (b *Builder) extract(name, lang string, data []byte, log logrus.FieldLogger) []string {
	extractors := b.Extractors
	if extractors == nil {
		extractors = DefaultExtractors()
	}
	c := b.extractionCache()

	for _, ex := range extractors {
		if !ex.Supports(lang) {
			continue
		}
		if c != nil {
			if e, ok, err := c.Get(ex.Name(), data); err == nil && ok {
				return e.Signatures
			}
		}
		sigs, err := ex.Extract(name, data)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{"file": name, "extractor": ex.Name()}).Debug("extractor failed, falling back")
			continue
		}
		if c != nil {
			if err := c.Put(ex.Name(), data, cache.Entry{Language: lang, Signatures: sigs}); err != nil {
				log.WithError(err).Debug("caching extraction result")
			}
		}
		return sigs
	}
	return nil
}

// summarize renders a one-line description from the file and child lists.
func summarize(id string, c *artifact.Content) string {
	var parts []string

	if n := len(c.Files); n > 0 {
		counts := make(map[string]int)
		for _, f := range c.Files {
			lang := f.Language
			if lang == "" {
				lang = "other"
			}
			counts[lang]++
		}
		langs := make([]string, 0, len(counts))
		for l := range counts {
			langs = append(langs, l)
		}
		sort.Slice(langs, func(i, j int) bool {
			if counts[langs[i]] != counts[langs[j]] {
				return counts[langs[i]] > counts[langs[j]]
			}
			return langs[i] < langs[j]
		})
		detail := make([]string, len(langs))
		for i, l := range langs {
			detail[i] = fmt.Sprintf("%d %s", counts[l], l)
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", plural(n, "file"), strings.Join(detail, ", ")))
	}

	if n := len(c.Children); n > 0 {
		parts = append(parts, plural(n, "subdirectory"))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Directory %s has no source files.", id)
	}
	summary := strings.Join(parts, ", ") + "."

	var names []string
	seen := make(map[string]bool)
	for _, f := range c.Files {
		for _, sig := range f.Signatures {
			name := declName(sig)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		more := ""
		if len(names) > maxSummaryNames {
			more = fmt.Sprintf(" and %d more", len(names)-maxSummaryNames)
			names = names[:maxSummaryNames]
		}
		summary += " Exports " + strings.Join(names, ", ") + more + "."
	}
	return summary
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

var declKeywords = map[string]bool{
	"type": true, "class": true, "interface": true, "struct": true, "enum": true,
	"trait": true, "message": true, "service": true, "const": true, "let": true,
	"var": true, "object": true, "module": true, "record": true, "protocol": true,
}

var callNameRe = regexp.MustCompile(`([A-Za-z_$][\w$.]*)\s*(?:<[^>]*>)?\s*\(`)

// declName picks the declared identifier out of a signature line.
func declName(sig string) string {
	fields := strings.Fields(sig)
	for i, f := range fields {
		if declKeywords[f] && i+1 < len(fields) {
			name := fields[i+1]
			if cut := strings.IndexAny(name, "<({:;,"); cut >= 0 {
				name = name[:cut]
			}
			return name
		}
	}
	if strings.HasPrefix(sig, "func (") {
		if end := strings.Index(sig, ") "); end >= 0 {
			sig = "func " + sig[end+2:]
		}
	}
	m := callNameRe.FindStringSubmatch(sig)
	if m == nil {
		return ""
	}
	switch m[1] {
	case "func", "function", "def", "fn", "fun":
		return ""
	}
	return m[1]
}
