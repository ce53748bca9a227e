package entity

import (
	"fmt"
	"sort"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

const (
	MaxSideLength = 40

	DefaultProfileName = "classic_15x15"
)

// BoardProfile describes a board variant. Rooms copy it by value, so a profile
// never changes under a running game.
type BoardProfile struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	SideLength  int    `json:"side_length"`
	WinLength   int    `json:"win_length"`
}

// Profiles is the catalogue of known board variants keyed by name.
var Profiles = map[string]BoardProfile{
	"mini_8x8": {
		Name: "mini_8x8", DisplayName: "Mini 8x8", SideLength: 8, WinLength: 4,
		Description: "Fast-paced games on mini 8x8 board with 4 in a row to win",
	},
	"small_10x10": {
		Name: "small_10x10", DisplayName: "Small 10x10", SideLength: 10, WinLength: 5,
		Description: "Quick games on smaller 10x10 board with 5 in a row to win",
	},
	"classic_15x15": {
		Name: "classic_15x15", DisplayName: "Classic 15x15", SideLength: 15, WinLength: 5,
		Description: "Traditional caro on 15x15 board with 5 in a row to win",
	},
	"large_20x20": {
		Name: "large_20x20", DisplayName: "Large 20x20", SideLength: 20, WinLength: 5,
		Description: "Extended gameplay on large 20x20 board with 5 in a row to win",
	},
	"giant_25x25": {
		Name: "giant_25x25", DisplayName: "Giant 25x25", SideLength: 25, WinLength: 5,
		Description: "Epic battles on giant 25x25 board with 5 in a row to win",
	},
	"huge_30x30": {
		Name: "huge_30x30", DisplayName: "Huge 30x30", SideLength: 30, WinLength: 5,
		Description: "Long games on huge 30x30 board with 5 in a row to win",
	},
	"massive_40x40": {
		Name: "massive_40x40", DisplayName: "Massive 40x40", SideLength: 40, WinLength: 5,
		Description: "Marathon games on massive 40x40 board with 5 in a row to win",
	},
}

// DefaultProfile returns the profile used when a room is created without a selector.
func DefaultProfile() BoardProfile {
	return Profiles[DefaultProfileName]
}

// ProfileByName looks a profile up in the catalogue.
func ProfileByName(name string) (BoardProfile, error) {
	profile, ok := Profiles[name]
	if !ok {
		return BoardProfile{}, fmt.Errorf("%w: unknown board type %q", apperror.ErrInvalidProfile, name)
	}

	return profile, nil
}

// SortedProfiles returns the catalogue ordered by board size.
func SortedProfiles() []BoardProfile {
	profiles := make([]BoardProfile, 0, len(Profiles))
	for _, profile := range Profiles {
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].SideLength == profiles[j].SideLength {
			return profiles[i].Name < profiles[j].Name
		}
		return profiles[i].SideLength < profiles[j].SideLength
	})

	return profiles
}

// NewProfile builds a custom profile from explicit dimensions.
func NewProfile(sideLength, winLength int) (BoardProfile, error) {
	profile := BoardProfile{
		Name:       fmt.Sprintf("custom_%dx%d_%d", sideLength, sideLength, winLength),
		SideLength: sideLength,
		WinLength:  winLength,
	}

	if err := profile.Validate(); err != nil {
		return BoardProfile{}, err
	}

	return profile, nil
}

func (that BoardProfile) Validate() error {
	switch {
	case that.SideLength < 1 || that.SideLength > MaxSideLength:
		return fmt.Errorf("%w: side length %d must be within 1..%d", apperror.ErrInvalidProfile, that.SideLength, MaxSideLength)
	case that.WinLength < 1:
		return fmt.Errorf("%w: win length %d must be positive", apperror.ErrInvalidProfile, that.WinLength)
	case that.WinLength > that.SideLength:
		return fmt.Errorf("%w: win length %d exceeds side length %d", apperror.ErrInvalidProfile, that.WinLength, that.SideLength)
	}

	return nil
}

// ProfileSelector picks a profile either by catalogue name or by explicit size.
// The zero value selects the default profile.
type ProfileSelector struct {
	Name       string `json:"board_type,omitempty"`
	SideLength int    `json:"side_length,omitempty"`
	WinLength  int    `json:"win_length,omitempty"`
}

func (that ProfileSelector) IsZero() bool {
	return that.Name == "" && that.SideLength == 0 && that.WinLength == 0
}

// Resolve turns the selector into a validated profile.
func (that ProfileSelector) Resolve() (BoardProfile, error) {
	switch {
	case that.IsZero():
		return DefaultProfile(), nil
	case that.Name != "":
		return ProfileByName(that.Name)
	default:
		return NewProfile(that.SideLength, that.WinLength)
	}
}
