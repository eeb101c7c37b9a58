package relocate

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// The rewriter works on specifier text, not an AST: the spec for a moved
// subtree is a prefix substitution over import specifiers, applied to
// relative specifiers after resolving them against the importing file's
// directory.
var (
	// import x from './a', export { y } from './a'
	fromRe = regexp.MustCompile(`(\b(?:import|export)\b[^'"` + "`" + `\n]*?\bfrom\s*)(['"])([^'"]+)(['"])`)
	// import './a' (side-effect import)
	bareImportRe = regexp.MustCompile(`(\bimport\s*)(['"])([^'"]+)(['"])`)
	// require('./a'), import('./a')
	callRe = regexp.MustCompile(`(\b(?:require|import)\s*\(\s*)(['"])([^'"]+)(['"])`)
	// require(someExpr), import(a template or expression): anything whose
	// first argument is not a plain string literal.
	dynamicCallRe = regexp.MustCompile(`\b(?:require|import)\s*\(\s*([^'")\s][^)\n]*)\)`)
	// require('./a/' + x): a string literal immediately concatenated with
	// more expression. The literal prefix alone does not identify a file, so
	// these cannot be rewritten either.
	concatCallRe = regexp.MustCompile(`\b(?:require|import)\s*\(\s*(['"][^'"]*['"]\s*\+[^)\n]*)\)`)
)

// rewriter rewrites import specifiers for one move. Paths are slash-separated
// and relative to the project root.
type rewriter struct {
	oldRel string
	newRel string
}

func newRewriter(from, to string) *rewriter {
	return &rewriter{
		oldRel: path.Clean(filepath.ToSlash(from)),
		newRel: path.Clean(filepath.ToSlash(to)),
	}
}

// inOldSubtree reports whether the root-relative slash path p falls inside
// the moved subtree.
func (r *rewriter) inOldSubtree(p string) bool {
	return p == r.oldRel || strings.HasPrefix(p, r.oldRel+"/")
}

// remap translates a root-relative slash path from the old subtree into the
// new one. The caller must have checked inOldSubtree.
func (r *rewriter) remap(p string) string {
	return r.newRel + strings.TrimPrefix(p, r.oldRel)
}

// logicalDir returns the directory a file's relative specifiers were
// authored against. For a file that was just moved this is its old location;
// for everything else it is where the file sits now. Both arguments and the
// result are root-relative slash paths.
func (r *rewriter) logicalDir(actualDir string) string {
	if r.inNewSubtree(actualDir) {
		return r.oldRel + strings.TrimPrefix(actualDir, r.newRel)
	}
	return actualDir
}

func (r *rewriter) inNewSubtree(p string) bool {
	return p == r.newRel || strings.HasPrefix(p, r.newRel+"/")
}

// retargetSpecifier computes the replacement for one import specifier found
// in a file. logicalDir is where the specifier was authored, actualDir where
// the file now lives. The boolean reports whether the specifier changed.
func (r *rewriter) retargetSpecifier(spec, logicalDir, actualDir string) (string, bool) {
	// A directory specifier keeps its trailing slash through the rewrite.
	if trimmed := strings.TrimSuffix(spec, "/"); trimmed != spec && trimmed != "" {
		next, changed := r.retargetSpecifier(trimmed, logicalDir, actualDir)
		return next + "/", changed
	}
	if !strings.HasPrefix(spec, ".") {
		// Path-mapped absolute specifier: plain prefix substitution.
		if r.inOldSubtree(spec) {
			return r.remap(spec), true
		}
		return spec, false
	}

	target := path.Join(logicalDir, spec)
	moved := r.inOldSubtree(target)
	if moved {
		target = r.remap(target)
	}
	if !moved && logicalDir == actualDir {
		// Neither end of the reference moved.
		return spec, false
	}

	rel, err := filepath.Rel(filepath.FromSlash(actualDir), filepath.FromSlash(target))
	if err != nil {
		return spec, false
	}
	rel = filepath.ToSlash(rel)
	if rel != ".." && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, rel != spec
}

// rewriteContent applies the move to every static import specifier in one
// file's content. It returns the new content and whether anything changed.
func (r *rewriter) rewriteContent(content, actualDir string) (string, bool) {
	logical := r.logicalDir(actualDir)
	changed := false

	replace := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(match string) string {
			parts := re.FindStringSubmatch(match)
			next, did := r.retargetSpecifier(parts[3], logical, actualDir)
			if !did {
				return match
			}
			changed = true
			return parts[1] + parts[2] + next + parts[4]
		})
	}

	content = replace(fromRe, content)
	content = replace(bareImportRe, content)
	content = replace(callRe, content)
	return content, changed
}

// findDynamicReferences flags require()/import() calls whose argument is not
// a plain string literal but mentions the moved directory: those cannot be
// rewritten unambiguously and must be surfaced to the operator.
func (r *rewriter) findDynamicReferences(relPath, content string) *ReferenceError {
	marker := path.Base(r.oldRel)
	for _, re := range []*regexp.Regexp{dynamicCallRe, concatCallRe} {
		for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
			arg := content[loc[2]:loc[3]]
			if !strings.Contains(arg, marker) {
				continue
			}
			return &ReferenceError{
				Path:      relPath,
				Line:      1 + strings.Count(content[:loc[0]], "\n"),
				Specifier: strings.TrimSpace(arg),
				Reason:    "dynamically constructed path references the moved directory and cannot be rewritten",
			}
		}
	}
	return nil
}

// findStaticReferences resolves every static relative specifier in content
// against dir and returns the root-relative targets with their line numbers.
func findStaticReferences(content, dir string) []staticRef {
	var refs []staticRef
	collect := func(re *regexp.Regexp) {
		for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
			spec := content[loc[6]:loc[7]]
			line := 1 + strings.Count(content[:loc[0]], "\n")
			ref := staticRef{Specifier: spec, Line: line}
			if strings.HasPrefix(spec, ".") {
				ref.Target = path.Join(dir, spec)
			} else {
				ref.Target = spec
			}
			refs = append(refs, ref)
		}
	}
	collect(fromRe)
	collect(bareImportRe)
	collect(callRe)
	return refs
}

// staticRef is one resolved static import found in a source file.
type staticRef struct {
	Specifier string
	Target    string
	Line      int
}
