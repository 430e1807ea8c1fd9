package domain

// ValidateIngestRequest is the entry-point gate for Add: it validates
// the target dataset and the document text together before a pipeline
// run is enqueued.
func ValidateIngestRequest(req IngestRequest) error {
	if err := ValidateDatasetRef(req.Dataset); err != nil {
		return err
	}
	return ValidateIngestText(req.Text)
}

// ValidateSearchRequest is the entry-point gate for Search.
func ValidateSearchRequest(req SearchRequest) error {
	if err := ValidateDatasetRef(req.Dataset); err != nil {
		return err
	}
	return ValidateQueryText(req.Query)
}
