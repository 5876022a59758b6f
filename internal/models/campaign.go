package models

// PhraseStat is a single keyword with its monthly impression count from the
// report service. Manual-list flows carry Shows=0.
type PhraseStat struct {
	Phrase string `json:"phrase"`
	Shows  int    `json:"shows"`
}

// Cluster is a named group of semantically related keywords produced by the
// clustering stage. Across the full cluster set every input phrase appears
// exactly once.
type Cluster struct {
	Name    string   `json:"name"`
	Phrases []string `json:"phrases"`
}

// AdCopy is one generated ad variant. Field lengths are enforced by the
// generation prompt (56/30/81/20 chars); they are not re-validated locally.
type AdCopy struct {
	Headline1 string `json:"headline_1"`
	Headline2 string `json:"headline_2"`
	Text      string `json:"text"`
	Path      string `json:"path"`
}

// AdGroup bundles one cluster with its keywords and generated ads.
type AdGroup struct {
	Name     string       `json:"name"`
	Keywords []PhraseStat `json:"keywords"`
	Ads      []AdCopy     `json:"ads"`
}

// CampaignBundle is the aggregate handed to the export stage. Groups whose
// generation produced zero ads are dropped before the bundle is built, so
// every group here has at least one AdCopy.
//
// HasStats records whether the keywords came from the report service
// (impression counts are meaningful) or from a pasted list (all zeros).
// The sheet exporter includes the frequency column only when HasStats is set.
type CampaignBundle struct {
	Name     string    `json:"name"`
	Groups   []AdGroup `json:"groups"`
	HasStats bool      `json:"has_stats"`
}

// TotalKeywords returns the number of keywords across all groups.
func (b *CampaignBundle) TotalKeywords() int {
	n := 0
	for _, g := range b.Groups {
		n += len(g.Keywords)
	}
	return n
}

// ExportResult reports where the campaign landed. At least one of the two
// fields is non-empty on success; both empty means the export failed.
type ExportResult struct {
	FilePath string `json:"file_path,omitempty"`
	SheetURL string `json:"sheet_url,omitempty"`
}

// Empty reports whether no sink produced an artifact.
func (r ExportResult) Empty() bool {
	return r.FilePath == "" && r.SheetURL == ""
}

// CampaignRun is one row of the campaign history table.
type CampaignRun struct {
	ID        string `json:"id"`
	Campaign  string `json:"campaign"`
	Source    string `json:"source"` // "collect", "list" or "analyze"
	Phrases   int    `json:"phrases"`
	Groups    int    `json:"groups"`
	Rows      int    `json:"rows"`
	FilePath  string `json:"file_path,omitempty"`
	SheetURL  string `json:"sheet_url,omitempty"`
	MockData  bool   `json:"mock_data"`
	CreatedAt string `json:"created_at"`
}
