package policy

import (
	"path/filepath"

	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/comparer"
	"github.com/yuya-takeyama/unitysync/pkg/transfer"
)

// Pull makes the local tree match the origin tree. Local-only entries are
// removed only when Clean is set.
type Pull struct {
	Clean    bool
	transfer *transfer.Transfer
}

func NewPull(t *transfer.Transfer, clean bool) *Pull {
	return &Pull{Clean: clean, transfer: t}
}

func (p *Pull) Name() string {
	return "pull"
}

func (p *Pull) Validate(pair asset.Pair) (bool, error) {
	if err := p.transfer.Begin(pair); err != nil {
		return false, err
	}

	origin := statPath(pair.Origin)
	local := statPath(pair.Local)

	switch {
	case origin != stateDir && local != stateDir:
		return false, invalidPair(pair)
	case local == stateMissing:
		// Bootstrap: the fresh copy is already in sync.
		return false, p.transfer.Copy(pair.Origin, pair.Local)
	case local != stateDir:
		return false, invalidPair(pair)
	case origin != stateDir:
		return false, nil
	}
	return true, nil
}

func (p *Pull) OnLeftOnly(c *comparer.Comparison, name string) error {
	return p.transfer.Copy(filepath.Join(c.Left, name), filepath.Join(c.Right, name))
}

func (p *Pull) OnRightOnly(c *comparer.Comparison, name string) error {
	if !p.Clean {
		return nil
	}
	return removeEntry(p.transfer, c.Right, c.Left, name)
}

func (p *Pull) OnDiff(c *comparer.Comparison, name string) error {
	return p.transfer.Copy(filepath.Join(c.Left, name), filepath.Join(c.Right, name))
}
