package framegraph

import (
	"fmt"
)

// BackendTag names the backend module that installed the GPU resource.
type BackendTag struct {
	Name string
}

// ensureSingleBackend panics when a second backend module is installed.
func ensureSingleBackend(app *App, name string) {
	if tag, ok := Resource[BackendTag](app); ok {
		app.Logger().Errorf("multiple backends installed: %s and %s", tag.Name, name)
		panic(fmt.Sprintf("multiple backends installed: %s and %s", tag.Name, name))
	}
	app.addResources(&BackendTag{Name: name})
}
