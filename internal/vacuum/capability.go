package vacuum

// ZoneCapability is implemented by optional session components that know
// whether the appliance supports zone-configured cleans. The commander
// rejects zone targets unless a component reports support; the check is
// an interface assertion so new capabilities compose without touching
// the command surface.
type ZoneCapability interface {
	ZoneCleaningSupported() bool
}
