package calendar

import "strings"

// ICloudSourceName is the name of the preferred CalDAV source.
const ICloudSourceName = "iCloud"

// ResolveSource picks the account a new calendar is created under.
//
// Order: the requested account if one with the same type and name exists,
// then a CalDAV account named iCloud, then any local account, then the
// platform default. The second return value is false when nothing resolves.
func ResolveSource(sources []Account, requested *Account, defaultSource *Account) (Account, bool) {
	if requested != nil {
		for _, s := range sources {
			if s.Type == requested.Type && s.Name == requested.Name {
				return s, true
			}
		}
	}
	for _, s := range sources {
		if s.Type == AccountCalDAV && strings.EqualFold(s.Name, ICloudSourceName) {
			return s, true
		}
	}
	for _, s := range sources {
		if s.Type == AccountLocal {
			return s, true
		}
	}
	if defaultSource != nil {
		return *defaultSource, true
	}
	return Account{}, false
}
