package workspace

import "fmt"

// Workspace represents a workspace the caller is a member of
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// DashboardPath builds the navigation target for a workspace's dashboard
func DashboardPath(id string) string {
	return fmt.Sprintf("/dashboard/%s", id)
}
