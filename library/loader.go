package library

import (
	"errors"
	"strings"
	"sync"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
	"github.com/gogpu/mixer/sdsl"
	"github.com/gogpu/mixer/source"
)

// ParserLoader loads fragments by parsing their sources. Parsed trees are
// cached per fragment name and macro set; callers receive clones.
type ParserLoader struct {
	sources *source.Manager

	mu    sync.Mutex
	cache map[string]*ast.Fragment
}

// NewParserLoader returns a loader over the given source manager.
func NewParserLoader(sources *source.Manager) *ParserLoader {
	return &ParserLoader{
		sources: sources,
		cache:   make(map[string]*ast.Fragment),
	}
}

// Sources returns the underlying source manager.
func (pl *ParserLoader) Sources() *source.Manager { return pl.sources }

func cacheKey(name string, macros []Macro) string {
	return name + "|" + MacroKey(macros)
}

// LoadClass implements Loader.
func (pl *ParserLoader) LoadClass(src *ClassSource, macros []Macro, log *diag.Log) *ast.Fragment {
	key := cacheKey(src.Name, macros)
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if f, ok := pl.cache[key]; ok {
		return ast.CloneFragment(f)
	}

	file, err := pl.sources.Load(src.Name)
	if err != nil {
		log.Add(&diag.Message{
			Severity: diag.SeverityError,
			Code:     diag.ErrSourceNotFound,
			Source:   src.Name,
			Text:     err.Error(),
		})
		return nil
	}
	frag, err := sdsl.Parse(file.Path, file.Text, Defines(macros))
	if err != nil {
		var errs diag.Errors
		if errors.As(err, &errs) {
			for _, m := range errs {
				log.Add(m)
			}
		} else {
			log.Error(diag.ErrParse, ast.Span{}, "%s: %v", file.Path, err)
		}
		return nil
	}
	if frag.Name != src.Name {
		log.Error(diag.ErrParse, frag.Span, "%s declares shader %s, expected %s", file.Path, frag.Name, src.Name)
		return nil
	}
	frag.SourceHash = file.Hash.String()
	pl.cache[key] = frag
	diag.Logger().Debug("library: parsed fragment", "name", src.Name, "path", file.Path)
	return ast.CloneFragment(frag)
}

// Exists implements Loader.
func (pl *ParserLoader) Exists(name string) bool {
	return pl.sources.Exists(name)
}

// DeleteObsolete implements Loader. It drops cached trees and the cached
// source text of the named fragments.
func (pl *ParserLoader) DeleteObsolete(names []string) {
	pl.mu.Lock()
	for key := range pl.cache {
		name, _, _ := strings.Cut(key, "|")
		for _, n := range names {
			if n == name {
				delete(pl.cache, key)
				break
			}
		}
	}
	pl.mu.Unlock()
	pl.sources.DeleteObsolete(names...)
}
