package models

import "time"

// UnregisteredPlaceholder fills contact fields of members the directory does not know.
const UnregisteredPlaceholder = "정보 미등록"

// DefaultExemptMarker is the exemption-column value that waives the buyer fee.
const DefaultExemptMarker = "면제"

// Exemption is the buyer-fee status of a member.
type Exemption int

const (
	ExemptionStandard Exemption = iota
	ExemptionExempt
)

func (e Exemption) String() string {
	if e == ExemptionExempt {
		return "exempt"
	}
	return "standard"
}

// MemberSchema identifies which revision of the member sheet a snapshot uses.
// Later revisions only append columns.
type MemberSchema int

const (
	// MemberSchemaV7: nickname, name, phone, address, exemption, carried debt, benefit amount.
	MemberSchemaV7 MemberSchema = 7
	// MemberSchemaV8 adds the benefit anchor date.
	MemberSchemaV8 MemberSchema = 8
	// MemberSchemaV9 adds the bank account.
	MemberSchemaV9 MemberSchema = 9
)

// Width is the number of columns the schema defines.
func (s MemberSchema) Width() int { return int(s) }

// HasBenefitAnchor reports whether the schema carries the benefit anchor column.
func (s MemberSchema) HasBenefitAnchor() bool { return s >= MemberSchemaV8 }

// HasBankAccount reports whether the schema carries the bank account column.
func (s MemberSchema) HasBankAccount() bool { return s >= MemberSchemaV9 }

// MemberProfile is a member directory entry keyed by nickname.
type MemberProfile struct {
	Nickname        string    `json:"nickname"`
	RealName        string    `json:"real_name"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	BankAccount     string    `json:"bank_account"`
	Exemption       Exemption `json:"-"`
	CarriedDebt     int64     `json:"carried_debt"`
	BenefitAmount   int64     `json:"benefit_amount"`
	BenefitAnchor   time.Time `json:"benefit_anchor,omitempty"`
	AnchorMalformed bool      `json:"anchor_malformed,omitempty"` // anchor cell was not a date
	Registered      bool      `json:"registered"`
}

// IsExempt reports whether the buyer fee is waived for this member.
func (m MemberProfile) IsExempt() bool {
	return m.Exemption == ExemptionExempt
}

// HasBenefitAnchor reports whether a benefit has been granted before.
func (m MemberProfile) HasBenefitAnchor() bool {
	return !m.BenefitAnchor.IsZero()
}

// DisplayName is the name used for canonical ordering in reports.
func (m MemberProfile) DisplayName() string {
	if m.Registered && m.RealName != "" && m.RealName != UnregisteredPlaceholder {
		return m.RealName
	}
	return m.Nickname
}

// GuestProfile is the profile used for a participant with no directory entry.
func GuestProfile(nickname string) MemberProfile {
	return MemberProfile{
		Nickname:    nickname,
		RealName:    UnregisteredPlaceholder,
		Phone:       UnregisteredPlaceholder,
		Address:     UnregisteredPlaceholder,
		BankAccount: UnregisteredPlaceholder,
		Exemption:   ExemptionStandard,
	}
}

// Directory maps nicknames to member profiles.
type Directory map[string]MemberProfile

// Lookup returns the member's profile, or a guest profile when unknown.
func (d Directory) Lookup(nickname string) (MemberProfile, bool) {
	if m, ok := d[nickname]; ok {
		return m, true
	}
	return GuestProfile(nickname), false
}
