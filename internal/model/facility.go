package model

import "strings"

// Facility is a bookable space. Compound facilities have named sub-facilities,
// each of which is checked in on its own.
type Facility struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	SubKeys     []string `json:"sub_keys,omitempty"`
	SubNames    []string `json:"sub_names,omitempty"`
}

// IsCompound reports whether the facility needs a sub-key per check-in.
func (f Facility) IsCompound() bool { return len(f.SubKeys) > 0 }

// HasSub reports whether sub is one of the facility's sub-keys.
func (f Facility) HasSub(sub string) bool {
	for _, k := range f.SubKeys {
		if k == sub {
			return true
		}
	}
	return false
}

// SubName returns the display name of a sub-facility, or the key itself.
func (f Facility) SubName(sub string) string {
	for i, k := range f.SubKeys {
		if k == sub && i < len(f.SubNames) {
			return f.SubNames[i]
		}
	}
	return sub
}

// RequiredKeys lists every compound key that must be done for the facility to
// be complete for a day.
func (f Facility) RequiredKeys() []string {
	if !f.IsCompound() {
		return []string{f.Key}
	}
	keys := make([]string, 0, len(f.SubKeys))
	for _, sub := range f.SubKeys {
		keys = append(keys, CompoundKey(f.Key, sub))
	}
	return keys
}

// CompoundKey builds "facility" or "facility:sub".
func CompoundKey(facility, sub string) string {
	if sub == "" {
		return facility
	}
	return facility + ":" + sub
}

// SplitCompoundKey is the inverse of CompoundKey.
func SplitCompoundKey(key string) (facility, sub string) {
	facility, sub, _ = strings.Cut(key, ":")
	return facility, sub
}

// Catalog is the immutable set of facilities, in display order.
type Catalog struct {
	facilities []Facility
}

func NewCatalog(facilities ...Facility) Catalog {
	return Catalog{facilities: append([]Facility(nil), facilities...)}
}

// DefaultCatalog is the university sports complex layout.
func DefaultCatalog() Catalog {
	return NewCatalog(
		Facility{
			Key:         FacilityOutdoor,
			DisplayName: "Outdoor courts",
			SubKeys:     []string{"tennis", "basketball", "futsal", "football", "volleyball", "sepak_takraw", "badminton"},
			SubNames:    []string{"Tennis", "Basketball", "Futsal", "Football", "Volleyball", "Sepak takraw", "Badminton"},
		},
		Facility{Key: "badminton", DisplayName: "Badminton hall"},
		Facility{Key: "track", DisplayName: "Track and field"},
		Facility{Key: "pool", DisplayName: "Swimming pool"},
	)
}

const FacilityOutdoor = "outdoor"

// Lookup finds a facility by key.
func (c Catalog) Lookup(key string) (Facility, bool) {
	for _, f := range c.facilities {
		if f.Key == key {
			return f, true
		}
	}
	return Facility{}, false
}

// Facilities returns a copy of the catalog entries.
func (c Catalog) Facilities() []Facility {
	return append([]Facility(nil), c.facilities...)
}

// Keys returns facility keys in display order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.facilities))
	for _, f := range c.facilities {
		keys = append(keys, f.Key)
	}
	return keys
}

// Label returns the display name for a facility key, falling back to the key.
func (c Catalog) Label(key string) string {
	if f, ok := c.Lookup(key); ok {
		return f.DisplayName
	}
	return key
}
