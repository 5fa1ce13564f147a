package models

// BankAccount is an extracted bank account with optional branch context
type BankAccount struct {
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
}

// Intelligence holds the structured financial/contact identifiers
// extracted from scammer messages. Within each kind no two entries
// compare equal under its natural key (UPI string, account number,
// phone digits, URL string, email string). Amounts are the exception:
// order and repetition carry signal, so they are never deduplicated.
type Intelligence struct {
	UPIIDs       []string      `json:"upi_ids"`
	BankAccounts []BankAccount `json:"bank_accounts"`
	PhoneNumbers []string      `json:"phone_numbers"`
	URLs         []string      `json:"urls"`
	Amounts      []string      `json:"amounts"`
	Emails       []string      `json:"emails"`
}

// Merge folds a per-turn delta into the accumulated intelligence.
// Scalar kinds are unioned preserving first-seen order; bank accounts
// are unioned by account number with existing entries winning ties.
// Merging the same delta twice is a no-op for every kind but amounts.
func (in *Intelligence) Merge(delta Intelligence) {
	in.UPIIDs = unionStrings(in.UPIIDs, delta.UPIIDs)
	in.PhoneNumbers = unionStrings(in.PhoneNumbers, delta.PhoneNumbers)
	in.URLs = unionStrings(in.URLs, delta.URLs)
	in.Emails = unionStrings(in.Emails, delta.Emails)
	in.Amounts = append(in.Amounts, delta.Amounts...)
	in.BankAccounts = unionAccounts(in.BankAccounts, delta.BankAccounts)
}

// PaymentIdentifiers counts distinct payment identifiers (UPI handles
// plus bank accounts), the evidence the closing transitions key on.
func (in *Intelligence) PaymentIdentifiers() int {
	return len(in.UPIIDs) + len(in.BankAccounts)
}

// IsEmpty reports whether no entity of any kind was captured
func (in *Intelligence) IsEmpty() bool {
	return len(in.UPIIDs) == 0 && len(in.BankAccounts) == 0 &&
		len(in.PhoneNumbers) == 0 && len(in.URLs) == 0 &&
		len(in.Amounts) == 0 && len(in.Emails) == 0
}

// Counts returns per-kind entity counts for metrics and events
func (in *Intelligence) Counts() map[string]int {
	return map[string]int{
		"upi_ids":       len(in.UPIIDs),
		"bank_accounts": len(in.BankAccounts),
		"phone_numbers": len(in.PhoneNumbers),
		"urls":          len(in.URLs),
		"amounts":       len(in.Amounts),
		"emails":        len(in.Emails),
	}
}

// unionStrings appends unseen values of b to a, preserving order
func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		a = append(a, v)
	}
	return a
}

// unionAccounts keeps the first occurrence per distinct account number
func unionAccounts(a, b []BankAccount) []BankAccount {
	seen := make(map[string]struct{}, len(a))
	for _, acc := range a {
		seen[acc.AccountNumber] = struct{}{}
	}
	for _, acc := range b {
		if _, ok := seen[acc.AccountNumber]; ok {
			continue
		}
		seen[acc.AccountNumber] = struct{}{}
		a = append(a, acc)
	}
	return a
}
