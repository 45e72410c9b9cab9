package ingest

import "github.com/rewired-gh/auctionledger/internal/models"

// Member sheet columns. The anchor and bank columns only exist in later schemas.
const (
	colNickname = iota
	colRealName
	colPhone
	colAddress
	colExemption
	colCarriedDebt
	colBenefitAmount
	colBenefitAnchor
	colBankAccount
)

// ResolveMemberSchema picks the member-sheet revision for a snapshot whose
// widest row has the given number of columns.
func ResolveMemberSchema(width int) models.MemberSchema {
	switch {
	case width >= models.MemberSchemaV9.Width():
		return models.MemberSchemaV9
	case width == models.MemberSchemaV8.Width():
		return models.MemberSchemaV8
	default:
		return models.MemberSchemaV7
	}
}

// NormalizeMembers converts header-less member rows into a directory keyed by
// nickname. The schema is resolved once from the widest row; shorter rows are
// padded with empty fields. The first row for a nickname wins.
func NormalizeMembers(rows [][]string, exemptMarker string) (models.Directory, models.MemberSchema, models.Diagnostics) {
	var diag models.Diagnostics
	if exemptMarker == "" {
		exemptMarker = models.DefaultExemptMarker
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	schema := ResolveMemberSchema(width)

	dir := make(models.Directory, len(rows))
	for _, row := range rows {
		nickname := cell(row, colNickname)
		if nickname == "" {
			diag.BlankMemberRows++
			continue
		}
		if _, dup := dir[nickname]; dup {
			diag.DuplicateMembers++
			continue
		}
		if len(row) < schema.Width() {
			diag.ShortMemberRows++
		}

		m := models.MemberProfile{
			Nickname:    nickname,
			RealName:    orPlaceholder(cell(row, colRealName)),
			Phone:       orPlaceholder(cell(row, colPhone)),
			Address:     orPlaceholder(cell(row, colAddress)),
			BankAccount: models.UnregisteredPlaceholder,
			Exemption:   models.ExemptionStandard,
			Registered:  true,
		}
		if cell(row, colExemption) == exemptMarker {
			m.Exemption = models.ExemptionExempt
		}

		debt, ok := ParseSignedAmount(cell(row, colCarriedDebt))
		if !ok {
			diag.MalformedMemberData++
		}
		m.CarriedDebt = debt

		benefit, ok := ParseSignedAmount(cell(row, colBenefitAmount))
		if !ok {
			diag.MalformedMemberData++
		}
		m.BenefitAmount = benefit

		if schema.HasBenefitAnchor() {
			if raw := cell(row, colBenefitAnchor); raw != "" {
				anchor, ok := ParseDate(raw)
				if !ok {
					diag.MalformedMemberData++
					m.AnchorMalformed = true
				}
				m.BenefitAnchor = anchor
			}
		}
		if schema.HasBankAccount() {
			m.BankAccount = orPlaceholder(cell(row, colBankAccount))
		}

		dir[nickname] = m
	}

	return dir, schema, diag
}

func orPlaceholder(s string) string {
	if s == "" {
		return models.UnregisteredPlaceholder
	}
	return s
}
