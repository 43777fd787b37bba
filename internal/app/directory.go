package app

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/vleray/parley/internal/domain"
)

// RoomDirectory holds the set of valid private room codes. Loaded once at
// startup and never mutated afterwards.
type RoomDirectory struct {
	codes map[domain.Room]struct{}
}

// NewRoomDirectory builds a directory from already-known codes. Entries are
// normalized the same way inbound codes are, so comparison is uniform.
func NewRoomDirectory(codes []string) *RoomDirectory {
	set := make(map[domain.Room]struct{}, len(codes))
	for _, code := range codes {
		set[domain.NormalizeCode(code)] = struct{}{}
	}
	return &RoomDirectory{codes: set}
}

// LoadRoomDirectory reads the room list resource, shape {"private": [...]}.
// A missing or malformed resource is an error the caller must treat as
// fatal: the relay must not serve sessions with an unknown room set.
func LoadRoomDirectory(path string) (*RoomDirectory, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read room list %s: %w", path, err)
	}

	var list struct {
		Private []string `mapstructure:"private"`
	}
	if err := v.Unmarshal(&list); err != nil {
		return nil, fmt.Errorf("parse room list %s: %w", path, err)
	}
	if list.Private == nil {
		return nil, fmt.Errorf("room list %s: missing \"private\" entry", path)
	}

	dir := NewRoomDirectory(list.Private)
	log.Info().Str("module", "app.directory").Int("rooms", dir.Len()).Str("path", path).Msg("room list loaded")
	return dir, nil
}

// Contains reports whether code is a valid private room. The code must
// already be normalized by the caller.
func (d *RoomDirectory) Contains(code domain.Room) bool {
	_, ok := d.codes[code]
	return ok
}

func (d *RoomDirectory) Len() int {
	return len(d.codes)
}
