package utils

import (
	"fmt"
	"strings"

	"deskhub/internal/db"
)

var workspaceTypeAliases = map[string]db.WorkspaceType{
	"desk":           db.WorkspaceDesk,
	"hot_desk":       db.WorkspaceDesk,
	"dedicated_desk": db.WorkspaceDesk,
	"office":         db.WorkspacePrivateOffice,
	"private_office": db.WorkspacePrivateOffice,
	"meeting_room":   db.WorkspaceMeetingRoom,
	"conference":     db.WorkspaceMeetingRoom,
	"coworking":      db.WorkspaceCoworking,
	"co_working":     db.WorkspaceCoworking,
}

// ParseWorkspaceType maps the names used by listing forms ("Private Office",
// "meeting-room", "co-working") onto the stored workspace type.
func ParseWorkspaceType(name string) (db.WorkspaceType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if wt, ok := workspaceTypeAliases[key]; ok {
		return wt, nil
	}
	return "", fmt.Errorf("unknown workspace type %q", name)
}
