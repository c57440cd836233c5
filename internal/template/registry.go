package template

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/platen/internal/emitter"
)

//go:embed data/*.xml
var dataFS embed.FS

var (
	cacheMu sync.Mutex
	cache   = map[string]*Template{}
)

// List returns the names of the embedded templates, sorted.
func List() []string {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".xml"))
	}
	sort.Strings(names)
	return names
}

// Get returns a parsed embedded template by name. Parsed templates are
// cached; they are immutable after parsing.
func Get(name string) (*Template, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if tpl, ok := cache[name]; ok {
		return tpl, nil
	}

	file := path.Join("data", name+".xml")
	data, err := dataFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unknown template %q; available templates: %s",
			name, strings.Join(List(), ", "))
	}
	tpl, err := Parse(data, name+".xml")
	if err != nil {
		return nil, err
	}
	cache[name] = tpl
	return tpl, nil
}

// RenderNamed renders an embedded template with the provided values.
func RenderNamed(name string, values map[string]string) (*emitter.Emitter, error) {
	tpl, err := Get(name)
	if err != nil {
		return nil, err
	}
	return tpl.Render(values)
}
