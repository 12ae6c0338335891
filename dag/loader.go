package dag

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/augkit/errors"
)

// GraphLoader loads graph definitions by name.
type GraphLoader interface {
	Load(name string) (*GraphDef, error)
}

// FileGraphLoader loads graph definitions from YAML files on disk.
type FileGraphLoader struct {
	dirs []string
}

// NewFileGraphLoader creates a loader that searches the given directories for graph YAML files.
func NewFileGraphLoader(dirs ...string) GraphLoader {
	return &FileGraphLoader{dirs: dirs}
}

// Load searches for a graph YAML file by name across configured directories.
// It searches for {name}.yaml and {name}.yml in each directory and its
// immediate sub-directories.
func (l *FileGraphLoader) Load(name string) (*GraphDef, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			// Try direct path first
			path := filepath.Join(dir, name+ext)
			if def, err := readGraphFile(path); err == nil {
				return def, nil
			} else if !os.IsNotExist(err) {
				return nil, err
			}

			// Search subdirectories
			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if def, err := readGraphFile(match); err == nil {
					return def, nil
				}
			}
		}
	}
	return nil, errors.NotFound(name, fmt.Sprintf("graph definition not found in %v", l.dirs))
}

func readGraphFile(path string) (*GraphDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def GraphDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Configuration("graph", fmt.Sprintf("parsing %s: %v", path, err))
	}
	return &def, nil
}

// LoadGraphFile loads the graph definition at path and resolves its
// includes from the file's directory.
func LoadGraphFile(path string) (*GraphDef, error) {
	def, err := readGraphFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(path, "graph definition file does not exist")
		}
		return nil, err
	}
	if def.Name == "" {
		def.Name = trimExt(filepath.Base(path))
	}
	return ResolveIncludes(def, NewFileGraphLoader(filepath.Dir(path)))
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// ResolveIncludes returns a definition with the nodes of every included
// graph merged in ahead of def's own nodes. Includes resolve recursively;
// a node name already merged is kept from its first definition (diamond
// includes). def's outputs win; when it has none, the last include that
// declares outputs provides them.
func ResolveIncludes(def *GraphDef, loader GraphLoader) (*GraphDef, error) {
	stack := make(map[string]bool)    // current recursion path (cycle detection)
	resolved := make(map[string]bool) // already fully resolved (dedup)
	return resolveIncludes(def, loader, stack, resolved)
}

func resolveIncludes(def *GraphDef, loader GraphLoader, stack, resolved map[string]bool) (*GraphDef, error) {
	if stack[def.Name] {
		return nil, errors.Configuration("includes", fmt.Sprintf("circular include detected for graph %q", def.Name))
	}
	stack[def.Name] = true
	defer delete(stack, def.Name)

	out := &GraphDef{Name: def.Name}
	seen := make(map[string]bool)
	merge := func(nodes []NodeDef) {
		for _, nd := range nodes {
			if seen[nd.Name] {
				continue // dedup: first wins (diamond includes)
			}
			seen[nd.Name] = true
			out.Nodes = append(out.Nodes, nd)
		}
	}

	// Resolve includes first
	for _, includeName := range def.Includes {
		if resolved[includeName] {
			continue // already resolved in a different branch (diamond)
		}

		sub, err := loader.Load(includeName)
		if err != nil {
			return nil, err
		}
		if sub.Name == "" {
			sub.Name = includeName
		}

		subDef, err := resolveIncludes(sub, loader, stack, resolved)
		if err != nil {
			return nil, err
		}
		merge(subDef.Nodes)
		if len(subDef.Outputs) > 0 {
			out.Outputs = subDef.Outputs
		}
	}

	merge(def.Nodes)
	if len(def.Outputs) > 0 {
		out.Outputs = append([]string(nil), def.Outputs...)
	}

	resolved[def.Name] = true
	return out, nil
}
