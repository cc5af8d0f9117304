// Package playbook defines the core domain types for plays, folders and
// share snapshots, plus the pure transformations applied to them.
// It depends on the standard library only.
package playbook

import (
	"errors"
	"time"
)

// AllPlaysFolderID identifies the synthetic "All Plays" view. It is never
// stored as a folder.
const AllPlaysFolderID = "all-plays"

const allPlaysName = "All Plays"

var (
	ErrNotFound       = errors.New("not found")
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderCycle    = errors.New("folder parent would create a cycle")
	ErrReservedID     = errors.New("id is reserved")
	ErrEmptyFolder    = errors.New("folder is empty")
	ErrDuplicatePlay  = errors.New("duplicate play id")
	ErrMissingID      = errors.New("id is required")
)

// Point is an (x, y) coordinate on the field canvas.
type Point [2]float64

type Side string

const (
	SideOffense Side = "offense"
	SideDefense Side = "defense"
)

type PlayerMarker struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Role  string  `json:"role"`
	Side  Side    `json:"side"`
	Label string  `json:"label,omitempty"`
}

type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// RouteMode controls how consecutive points are joined.
type RouteMode string

const (
	RouteStraight RouteMode = "straight"
	RouteCurve    RouteMode = "curve"
	RouteBreak    RouteMode = "break"
)

type Route struct {
	ID     string    `json:"id"`
	Points []Point   `json:"points"`
	Style  LineStyle `json:"style"`
	Mode   RouteMode `json:"mode"`
	Color  string    `json:"color,omitempty"`
	Arrow  bool      `json:"arrow,omitempty"`
}

type TextAnnotation struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
	Size float64 `json:"size,omitempty"`
}

type Circle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color,omitempty"`
}

type Play struct {
	ID                      string            `json:"id"`
	Name                    string            `json:"name"`
	FolderID                *string           `json:"folderId,omitempty"`
	Players                 []PlayerMarker    `json:"players"`
	Routes                  []Route           `json:"routes"`
	Texts                   []TextAnnotation  `json:"texts,omitempty"`
	Circles                 []Circle          `json:"circles,omitempty"`
	PlayerRouteAssociations RouteAssociations `json:"playerRouteAssociations,omitempty"`
	Notes                   string            `json:"notes,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	UpdatedAt               time.Time         `json:"updatedAt"`
}

func (p Play) EntityID() string { return p.ID }

// InFolder reports whether the play is filed under folderID.
func (p Play) InFolder(folderID string) bool {
	if folderID == AllPlaysFolderID {
		return true
	}
	return p.FolderID != nil && *p.FolderID == folderID
}

type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt changes on rename or move. Folders written before it
	// existed leave it zero.
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f Folder) EntityID() string { return f.ID }

// LastModified returns UpdatedAt, or CreatedAt for folders never updated.
func (f Folder) LastModified() time.Time {
	if f.UpdatedAt.IsZero() {
		return f.CreatedAt
	}
	return f.UpdatedAt
}

// UserData is the per-user aggregate persisted as a single document.
type UserData struct {
	Plays     []Play    `json:"plays"`
	Folders   []Folder  `json:"folders"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SharedFolder is an immutable public snapshot of a folder's plays.
type SharedFolder struct {
	ShareID    string     `json:"shareId"`
	FolderID   string     `json:"folderId"`
	FolderName string     `json:"folderName"`
	Plays      []Play     `json:"plays"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the snapshot has passed its expiry. Snapshots
// without an expiry never expire.
func (s SharedFolder) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
