package emit

import (
	"path"
	"strings"

	"golang.org/x/mod/modfile"

	"treegen/errs"
)

// ResolveImportPath computes the fully-qualified Go import path for a
// schema `ext` primitive package declared in an `include "..."`
// directive, relative to the invoking repository's own module, rather
// than requiring the schema author to spell out the module path by
// hand. goModData is the invoking repository's own go.mod contents;
// relDir is the include directive's path relative to the module root
// (e.g. "internal/fstypes").
//
// Grounded on analyzer/gomod/ast_equivalence.go's use of
// golang.org/x/mod/modfile to walk go.mod structure; this is the one
// constructive (rather than pure-comparison) use of modfile in the
// module.
func ResolveImportPath(goModData []byte, relDir string) (string, error) {
	f, err := modfile.Parse("go.mod", goModData, nil)
	if err != nil {
		return "", errs.NewSchemaError("go.mod", 0, "parsing go.mod: %v", err)
	}
	if f.Module == nil {
		return "", errs.NewMissing("go.mod has no module directive")
	}
	modPath := f.Module.Mod.Path
	relDir = strings.Trim(relDir, "/")
	if relDir == "" {
		return modPath, nil
	}
	return path.Join(modPath, relDir), nil
}
