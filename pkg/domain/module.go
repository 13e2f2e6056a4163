package domain

// Module is one foreign component instance observed by the engine.
type Module struct {
	// ID is the opaque identity of the instance.
	ID string `json:"id"`

	// Type is the type tag used to look up the module's handler.
	Type string `json:"type"`

	// DisplayName is the human-readable module name, as the bomb reports it.
	DisplayName string `json:"display_name"`

	// Object is the foreign object handlers introspect. Never serialized.
	Object any `json:"-"`
}

// String returns the display name, falling back to the type tag.
func (m Module) String() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Type
}
