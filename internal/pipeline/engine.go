package pipeline

import (
	"go.uber.org/zap"

	"cardapio/internal/config"
	"cardapio/internal/menu"
)

// NewEngine builds the normalization engine from the MENU_* settings.
func NewEngine(cfg config.Config, log *zap.Logger) (*menu.Engine, error) {
	vocab, err := menu.LoadVocabulary(cfg.MenuVocabularyPath)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	opts := menu.DefaultOptions()
	opts.Mode = menu.Mode(cfg.MenuMode)
	opts.Vocabulary = vocab
	opts.AlignMaxPasses = cfg.MenuAlignMaxPasses
	opts.AlignSampleRows = cfg.MenuAlignSampleRows
	opts.HeaderScanRows = cfg.MenuHeaderScanRows
	opts.ContextWindow = cfg.MenuContextWindow
	opts.PadPrimaryShifts = cfg.MenuPadPrimaryShifts
	opts.Logger = log.Named("menu")
	return menu.NewEngine(opts)
}
