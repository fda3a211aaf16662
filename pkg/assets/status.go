package assets

import (
	"os"

	"github.com/dustin/go-humanize"
)

// Status describes one asset on disk.
type Status struct {
	Asset   `yaml:",inline"`
	Path    string `json:"path" yaml:"path"`
	Present bool   `json:"present" yaml:"present"`
	Size    int64  `json:"size,omitempty" yaml:"size,omitempty"`
	SizeStr string `json:"size_human,omitempty" yaml:"size_human,omitempty"`
}

// Status reports the state of each asset without fetching anything.
func (s *Store) Status(list ...Asset) ([]*Status, error) {
	out := make([]*Status, 0, len(list))
	for _, a := range list {
		st := &Status{
			Asset: a,
			Path:  s.Path(a.Name),
		}

		info, err := os.Stat(st.Path)
		switch {
		case err == nil:
			st.Present = true
			st.Size = info.Size()
			st.SizeStr = humanize.Bytes(uint64(info.Size()))
		case os.IsNotExist(err):
		default:
			return nil, err
		}

		out = append(out, st)
	}
	return out, nil
}
