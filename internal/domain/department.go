package domain

// Department is an organizational unit issues can be routed to.
// Departments are reference data managed outside this service.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
