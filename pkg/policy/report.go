package policy

import (
	"path/filepath"

	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/comparer"
	"github.com/yuya-takeyama/unitysync/pkg/logger"
)

// Report prints differences and changes nothing.
type Report struct {
	logger logger.Logger
}

func NewReport(log logger.Logger) *Report {
	return &Report{logger: log}
}

func (r *Report) Name() string {
	return "diff"
}

func (r *Report) Validate(pair asset.Pair) (bool, error) {
	origin := statPath(pair.Origin)
	local := statPath(pair.Local)

	switch {
	case origin != stateDir && local != stateDir:
		r.logger.LeftOnly(pair.Origin)
		return false, invalidPair(pair)
	case local != stateDir:
		r.logger.LeftOnly(pair.Origin)
		return false, nil
	case origin != stateDir:
		r.logger.RightOnly(pair.Local)
		return false, nil
	}
	return true, nil
}

func (r *Report) OnLeftOnly(c *comparer.Comparison, name string) error {
	r.logger.LeftOnly(filepath.Join(c.Left, name))
	return nil
}

func (r *Report) OnRightOnly(c *comparer.Comparison, name string) error {
	r.logger.RightOnly(filepath.Join(c.Right, name))
	return nil
}

func (r *Report) OnDiff(c *comparer.Comparison, name string) error {
	r.logger.Diff(filepath.Join(c.Right, name))
	return nil
}
