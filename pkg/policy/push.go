package policy

import (
	"path/filepath"

	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/comparer"
	"github.com/yuya-takeyama/unitysync/pkg/transfer"
)

// Push makes the origin tree match the local tree. Origin-only entries are
// removed only when Clean is set.
type Push struct {
	Clean    bool
	transfer *transfer.Transfer
}

func NewPush(t *transfer.Transfer, clean bool) *Push {
	return &Push{Clean: clean, transfer: t}
}

func (p *Push) Name() string {
	return "push"
}

func (p *Push) Validate(pair asset.Pair) (bool, error) {
	if err := p.transfer.Begin(pair); err != nil {
		return false, err
	}

	origin := statPath(pair.Origin)
	local := statPath(pair.Local)

	switch {
	case origin != stateDir && local != stateDir:
		return false, invalidPair(pair)
	case origin == stateMissing:
		return false, p.transfer.Copy(pair.Local, pair.Origin)
	case origin != stateDir:
		return false, invalidPair(pair)
	case local != stateDir:
		return false, nil
	}
	return true, nil
}

func (p *Push) OnLeftOnly(c *comparer.Comparison, name string) error {
	if !p.Clean {
		return nil
	}
	return removeEntry(p.transfer, c.Left, c.Right, name)
}

func (p *Push) OnRightOnly(c *comparer.Comparison, name string) error {
	return p.transfer.Copy(filepath.Join(c.Right, name), filepath.Join(c.Left, name))
}

func (p *Push) OnDiff(c *comparer.Comparison, name string) error {
	return p.transfer.Copy(filepath.Join(c.Right, name), filepath.Join(c.Left, name))
}
