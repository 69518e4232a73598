package utils

// NewNullString returns nil for an empty string, so optional request
// fields land as NULL in the database instead of empty text.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringOrEmpty dereferences an optional string column.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
