package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file matches a fully-qualified class name.
var ErrNotFound = errors.New("no matching file found")

// Locator resolves fully-qualified Java class names to files in the standard
// Maven layout (src/main/java, src/test/java).
type Locator struct {
	projectDir string
}

// NewLocator creates a locator rooted at the project directory.
func NewLocator(projectDir string) *Locator {
	return &Locator{projectDir: projectDir}
}

// SourceRoot returns the main source root.
func (l *Locator) SourceRoot() string {
	return filepath.Join(l.projectDir, "src", "main", "java")
}

// TestRoot returns the test source root.
func (l *Locator) TestRoot() string {
	return filepath.Join(l.projectDir, "src", "test", "java")
}

// FindSource resolves a source class FQN to its file under src/main/java.
// Inner classes (Outer$Inner) resolve to the outer class file.
func (l *Locator) FindSource(fqn string) (string, error) {
	return l.find(l.SourceRoot(), fqn)
}

// FindTest resolves the test class paired with the given FQN. A name already
// ending in "Test" is looked up directly; otherwise "<Class>Test" is used.
func (l *Locator) FindTest(fqn string) (string, error) {
	return l.find(l.TestRoot(), TestClassFor(fqn))
}

// TestPathFor returns the conventional path for the test class paired with
// fqn, whether or not the file exists yet. Used when a coverage workflow
// needs to create a brand-new test file.
func (l *Locator) TestPathFor(fqn string) string {
	return filepath.Join(l.TestRoot(), filepath.FromSlash(fqnToRelPath(TestClassFor(fqn))))
}

// TestClassFor maps a class FQN to its paired test class FQN.
func TestClassFor(fqn string) string {
	fqn = outerClass(fqn)
	if strings.HasSuffix(fqn, "Test") {
		return fqn
	}
	return fqn + "Test"
}

// SourceClassFor maps a test class FQN back to the class under test.
func SourceClassFor(testFqn string) string {
	fqn := outerClass(testFqn)
	return strings.TrimSuffix(fqn, "Test")
}

// find resolves an FQN under the given root: first by direct path derivation,
// then by walking the tree for the simple file name.
func (l *Locator) find(root, fqn string) (string, error) {
	fqn = outerClass(fqn)
	if fqn == "" {
		return "", fmt.Errorf("empty class name: %w", ErrNotFound)
	}

	direct := filepath.Join(root, filepath.FromSlash(fqnToRelPath(fqn)))
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	// Fallback: the source tree may not mirror the package structure.
	want := simpleName(fqn) + ".java"
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if !d.IsDir() && d.Name() == want {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err == nil && found != "" {
		return found, nil
	}
	return "", fmt.Errorf("class %s under %s: %w", fqn, root, ErrNotFound)
}

// outerClass strips an inner-class suffix (Outer$Inner -> Outer).
func outerClass(fqn string) string {
	if i := strings.Index(fqn, "$"); i >= 0 {
		return fqn[:i]
	}
	return fqn
}

func simpleName(fqn string) string {
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

func fqnToRelPath(fqn string) string {
	return strings.ReplaceAll(fqn, ".", "/") + ".java"
}
