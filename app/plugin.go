package app

// Plugin bundles related registrations so they can be added to an App in one call.
type Plugin interface {
	Build(app *App)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(app *App)

// Build calls f(app).
func (f PluginFunc) Build(app *App) {
	f(app)
}
