package types

// ReconcileParams is the input for one reconciliation run. The zero
// value runs a normal reconciliation against the configured segment.
type ReconcileParams struct {
	// DryRun computes the full patch set but skips the PATCH call,
	// reporting what would have been written.
	DryRun bool `json:"dry_run"`
}

// RunResult summarizes one reconciliation run.
type RunResult struct {
	RunID        string `json:"run_id"`
	DaysScanned  int    `json:"days_scanned"`
	Manifests    int    `json:"manifests"`
	DataFiles    int    `json:"data_files"`
	MissingFiles int    `json:"missing_files"` // data files gone from the store, skipped
	NewDomains   int    `json:"new_domains"`   // newly added, not merged total
	PatchOps     int    `json:"patch_ops"`
	Patched      bool   `json:"patched"`
	Watermark    string `json:"watermark"` // display form written to the rule description
	ElapsedMS    int64  `json:"elapsed_ms"`
}
