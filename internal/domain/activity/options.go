package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	ProjectID string
	TabID     string
	Type      *Type
	Limit     int
	Offset    int
}
