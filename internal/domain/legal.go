package domain

// LegalDocument is a rendered terms-of-use or privacy page
type LegalDocument struct {
	Title      string `json:"title"`
	Content    string `json:"Content"`
	UpdateDate string `json:"UpdateDate"`
}

// Legal document types served under /api/legal/{docType}
const (
	LegalTerms   = "terms"
	LegalPrivacy = "privacy"
)
