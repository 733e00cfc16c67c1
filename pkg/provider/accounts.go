package provider

import "github.com/sonroyaalmerol/device-calendar/pkg/calendar"

var accountTypes = map[string]calendar.AccountType{
	AccountTypeLocal:     calendar.AccountLocal,
	AccountTypeCalDAV:    calendar.AccountCalDAV,
	AccountTypeGoogle:    calendar.AccountCalDAV,
	AccountTypeExchange:  calendar.AccountExchange,
	AccountTypeICS:       calendar.AccountSubscribed,
	AccountTypeBirthdays: calendar.AccountBirthdays,
	AccountTypeMobileMe:  calendar.AccountMobileMe,
}

// AccountType maps a provider account type to the unified one. Unknown
// sync adapters are treated as CalDAV.
func AccountType(providerType string) calendar.AccountType {
	if t, ok := accountTypes[providerType]; ok {
		return t
	}
	return calendar.AccountCalDAV
}

type account struct {
	name         string
	providerType string
	isDefault    bool
}

func (a account) unified() calendar.Account {
	return calendar.Account{Name: a.name, Type: AccountType(a.providerType)}
}
