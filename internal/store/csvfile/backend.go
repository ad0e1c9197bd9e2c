package csvfile

import (
	"github.com/pulverlogic/newsboard/internal/store"
)

type Backend struct {
	logs    *LogFile
	bonuses *BonusFile
}

func New(logsPath, bonusPath string) *Backend {
	return &Backend{
		logs:    NewLogFile(logsPath),
		bonuses: NewBonusFile(bonusPath),
	}
}

func (b *Backend) Logs() store.LogStore {
	return b.logs
}

func (b *Backend) Bonuses() store.BonusStore {
	return b.bonuses
}

// Paths lists the files a sync should stage.
func (b *Backend) Paths() []string {
	return []string{b.logs.Path(), b.bonuses.Path()}
}

func (b *Backend) Close() error {
	return nil
}
