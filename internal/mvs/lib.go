package mvs

import (
	_ "embed"
	"sync"

	"github.com/dop251/goja"
)

//go:embed prelude.js
var preludeSource string

// LibraryNamespaces lists the helper globals scene scripts can use.
var LibraryNamespaces = []string{
	"Vec3", "Mat3", "Mat4", "Quat", "Euler",
	"decodeColor", "MolScriptBuilder", "formatMolScript",
}

var (
	libOnce sync.Once
	libProg *goja.Program
	libErr  error
)

// libraryProgram compiles the helper library once; the program is shared by
// every scene runtime.
func libraryProgram() (*goja.Program, error) {
	libOnce.Do(func() {
		libProg, libErr = goja.Compile("prelude.js", preludeSource, true)
	})
	return libProg, libErr
}

// LibrarySource returns the helper library script so that browser-side
// runners can offer scripts the same globals.
func LibrarySource() string { return preludeSource }
