package focusmomo

type CategoryID string

type CategoryRecord struct {
	Name    string
	Domains []string
}

type ExistingCategoryRecord struct {
	ExistingRecord[CategoryID]
	CategoryRecord
}
