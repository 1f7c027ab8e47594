package hub

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRegistryReplaceOnCollisionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	nameGen := gen.OneConstOf("D1", "D2", "D3", "D4")

	// However registrations interleave, each name maps to at most one
	// record, and that record is the most recently registered one.
	properties.Property("at most one live record per name, always the newest", prop.ForAll(
		func(names []string) bool {
			reg := NewRegistry()
			newest := make(map[string]string)

			for _, name := range names {
				d := newTestDevice(name)
				reg.RegisterDevice(d)
				newest[name] = d.ID
			}

			if reg.DeviceCount() != len(newest) {
				return false
			}
			for name, id := range newest {
				d, ok := reg.Device(name)
				if !ok || d.ID != id {
					return false
				}
			}
			return true
		},
		gen.SliceOf(nameGen),
	))

	// A removal keyed by any session ID other than the current record's
	// never mutates the table.
	properties.Property("stale removals never evict the current record", prop.ForAll(
		func(names []string) bool {
			reg := NewRegistry()
			var stale []*Device

			for _, name := range names {
				d := newTestDevice(name)
				if old := reg.RegisterDevice(d); old != nil {
					stale = append(stale, old)
				}
			}

			before := reg.DeviceCount()
			for _, d := range stale {
				if reg.RemoveDevice(d.Name, d.ID) {
					return false
				}
			}
			return reg.DeviceCount() == before
		},
		gen.SliceOf(nameGen),
	))

	properties.TestingRun(t)
}
